package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"evetrade/internal/api"
	"evetrade/internal/config"
	"evetrade/internal/db"
	"evetrade/internal/engine"
	"evetrade/internal/esi"
	"evetrade/internal/graph"
	"evetrade/internal/logger"
	"evetrade/internal/lookup"
	"evetrade/internal/scan"
)

var version = "dev"

// names joins the two lookup providers into the API's display-name surface.
type names struct {
	*lookup.Systems
	*lookup.Volumes
}

func main() {
	configPath := flag.String("config", "evetrade.json", "path to the config file")
	fetch := flag.Bool("fetch", false, "pull a fresh order snapshot before scanning")
	serve := flag.Bool("serve", false, "start the HTTP API instead of a one-shot scan")
	maxVol := flag.Float64("maxvol", 0, "cargo capacity in m3 (overrides config)")
	minTrip := flag.Float64("minprofitpertrip", 0, "minimum ISK profit per trip (overrides config)")
	minTrade := flag.Float64("minprofitpertrade", 0, "minimum ISK profit per trade (overrides config)")
	minJump := flag.Float64("minprofitperjump", 0, "minimum ISK profit per jump (overrides config)")
	safe := flag.Bool("safe", false, "count jumps along high-sec routes only")
	regions := flag.String("regions", "", "region set: all, empire or null (overrides config)")
	flag.Parse()

	logger.Banner(version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("CONFIG", err.Error())
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "maxvol":
			cfg.MaxVolume = *maxVol
		case "minprofitpertrip":
			cfg.MinProfitPerTrip = *minTrip
		case "minprofitpertrade":
			cfg.MinProfitPerTrade = *minTrade
		case "minprofitperjump":
			cfg.MinProfitPerJump = *minJump
		case "safe":
			cfg.SafeRoutesOnly = *safe
		case "regions":
			cfg.Regions = *regions
		}
	})

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open %s: %v", cfg.DBPath, err))
		os.Exit(1)
	}
	defer database.Close()

	client := esi.NewClient()
	volumes := lookup.NewVolumes(database, client)
	systems := lookup.NewSystems(database, client, client)
	jumps := lookup.NewJumps(database, client)
	if cfg.UniversePath != "" {
		universe, err := graph.LoadFile(cfg.UniversePath)
		if err != nil {
			logger.Warn("GRAPH", fmt.Sprintf("Stargate map %s unusable, falling back to remote routes: %v", cfg.UniversePath, err))
		} else {
			jumps.SetUniverse(universe)
			logger.Info("GRAPH", fmt.Sprintf("Loaded stargate map with %d systems", universe.SystemCount()))
		}
	}

	scanner := &scan.Scanner{
		DB:       database,
		Source:   client,
		Resolver: systems,
		Volumes:  volumes,
		Jumps:    jumps,
	}

	if *serve {
		srv := api.NewServer(cfg, *configPath, scanner, names{systems, volumes})
		if err := srv.ListenAndServe(); err != nil {
			logger.Error("API", err.Error())
			os.Exit(1)
		}
		return
	}

	if *fetch {
		logger.Section("Snapshot")
		if _, err := scanner.FetchSnapshot(scan.FetchOptions{
			Regions:          cfg.RegionFilter(),
			IgnoreContraband: cfg.IgnoreContraband,
		}); err != nil {
			logger.Error("FETCH", err.Error())
			os.Exit(1)
		}
	}

	logger.Section("Scan")
	trips, err := scanner.Run(cfg.EngineParams())
	if err != nil {
		logger.Error("SCAN", err.Error())
		os.Exit(1)
	}
	printReport(trips, systems, volumes, cfg)
}

func printReport(trips []engine.Trip, systems *lookup.Systems, volumes *lookup.Volumes, cfg *config.Config) {
	if len(trips) == 0 {
		logger.Warn("REPORT", "No trips clear the configured floors")
		return
	}

	var total float64
	for i, trip := range trips {
		logger.Section(fmt.Sprintf("Trip %d: %s -> %s", i+1,
			systems.SystemName(trip.StartSystem), systems.SystemName(trip.EndSystem)))
		logger.Stats("Jumps", trip.Jumps)
		logger.Stats("Cargo", fmt.Sprintf("%s / %s m3", humanize.Commaf(trip.Volume), humanize.Commaf(cfg.MaxVolume)))
		logger.Stats("Profit", humanize.Commaf(trip.Profit())+" ISK")
		logger.Stats("Profit per jump", humanize.Commaf(trip.ProfitPerJump())+" ISK")
		for _, trade := range trip.Trades {
			fmt.Printf("    %s x%s  buy %s, sell %s  -> %s ISK\n",
				volumes.ItemName(trade.TypeID),
				humanize.Comma(trade.Quantity),
				humanize.Commaf(trade.Sell.Price),
				humanize.Commaf(trade.Buy.Price),
				humanize.Commaf(trade.Profit()))
		}
		total += trip.Profit()
	}

	logger.Section("Summary")
	logger.Stats("Trips", len(trips))
	logger.Stats("Total profit", humanize.Commaf(total)+" ISK")
}
