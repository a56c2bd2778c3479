package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// ANSI color codes. Disabled automatically when stdout is not a terminal.
const (
	colReset  = "\033[0m"
	colGray   = "\033[90m"
	colGreen  = "\033[32m"
	colYellow = "\033[33m"
	colRed    = "\033[31m"
	colCyan   = "\033[36m"
	colBold   = "\033[1m"
)

var debugEnabled = os.Getenv("EVETRADE_DEBUG") != ""

func color(c string) string {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return c
	}
	return ""
}

func emit(level, levelColor, tag, msg string) {
	ts := time.Now().Format("15:04:05")
	fmt.Fprintf(os.Stdout, "%s%s%s %s%-7s%s %s[%s]%s %s\n",
		color(colGray), ts, color(colReset),
		color(levelColor), level, color(colReset),
		color(colCyan), tag, color(colReset),
		msg)
}

// Info logs an informational message under a component tag.
func Info(tag, msg string) { emit("INFO", colReset, tag, msg) }

// Success logs a completed-step message.
func Success(tag, msg string) { emit("OK", colGreen, tag, msg) }

// Warn logs a recoverable problem.
func Warn(tag, msg string) { emit("WARN", colYellow, tag, msg) }

// Error logs a failure.
func Error(tag, msg string) { emit("ERROR", colRed, tag, msg) }

// Debug logs only when EVETRADE_DEBUG is set.
func Debug(tag, msg string) {
	if debugEnabled {
		emit("DEBUG", colGray, tag, msg)
	}
}

// Banner prints the startup banner with the build version.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(os.Stdout, "%s%s  evetrade %s%s\n", color(colBold), color(colCyan), version, color(colReset))
	fmt.Fprintf(os.Stdout, "%s  interregional arbitrage scanner%s\n\n", color(colGray), color(colReset))
}

// Section prints a visual divider before a new phase of work.
func Section(name string) {
	fmt.Fprintf(os.Stdout, "\n%s── %s %s\n", color(colBold), name, color(colReset))
}

// Stats prints a single aligned key/value line, for run summaries.
func Stats(label string, value interface{}) {
	fmt.Fprintf(os.Stdout, "  %s%-24s%s %v\n", color(colGray), label, color(colReset), value)
}
