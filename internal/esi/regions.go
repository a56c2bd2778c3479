package esi

import (
	"fmt"
	"strings"
	"sync"
)

// RegionFilter selects which slice of the universe to pull orders from.
type RegionFilter string

const (
	RegionsAll    RegionFilter = "all"
	RegionsEmpire RegionFilter = "empire" // NPC empire space: where arbitrage actually trades
	RegionsNull   RegionFilter = "null"
)

// Player-controlled null-sec regions. Markets there are sparse, access is
// restricted, and hauling through them is a good way to lose the cargo, so
// the empire filter drops them.
var nullRegionNames = map[string]bool{
	"Branch": true, "Cache": true, "Catch": true, "Cloud Ring": true,
	"Cobalt Edge": true, "Curse": true, "Deklein": true, "Delve": true,
	"Detorid": true, "Esoteria": true, "Etherium Reach": true, "Fade": true,
	"Feythabolis": true, "Fountain": true, "Geminate": true,
	"Great Wildlands": true, "Immensea": true, "Impass": true,
	"Insmother": true, "The Kalevala Expanse": true, "Malpais": true,
	"Oasa": true, "Omist": true, "Outer Passage": true, "Outer Ring": true,
	"Paragon Soul": true, "Period Basis": true, "Perrigen Falls": true,
	"Providence": true, "Pure Blind": true, "Querious": true,
	"Scalding Pass": true, "The Spire": true, "Stain": true,
	"Syndicate": true, "Tenal": true, "Tenerifis": true, "Tribute": true,
	"Vale of the Silent": true, "Venal": true, "Wicked Creek": true,
}

// Inaccessible Jove regions.
var joveRegionNames = map[string]bool{
	"A821-A": true, "J7HZ-F": true, "UUA-F4": true,
}

// FetchRegions enumerates regions and returns regionID -> name for those
// passing the filter. Wormhole and abyssal regions carry numeric "000" names
// and are always excluded from the empire set.
func (c *Client) FetchRegions(filter RegionFilter) (map[int32]string, error) {
	var ids []int32
	if err := c.GetJSON(c.BaseURL+"/universe/regions/?datasource=tranquility", &ids); err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}

	names := make([]string, len(ids))
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int32) {
			defer wg.Done()
			var info struct {
				Name string `json:"name"`
			}
			url := fmt.Sprintf("%s/universe/regions/%d/?datasource=tranquility", c.BaseURL, id)
			if err := c.GetJSON(url, &info); err != nil {
				errs[i] = err
				return
			}
			names[i] = info.Name
		}(i, id)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("region info: %w", err)
		}
	}

	result := make(map[int32]string)
	for i, id := range ids {
		name := names[i]
		switch filter {
		case RegionsNull:
			if nullRegionNames[name] {
				result[id] = name
			}
		case RegionsEmpire:
			if !nullRegionNames[name] && !joveRegionNames[name] && !strings.Contains(name, "000") {
				result[id] = name
			}
		default:
			result[id] = name
		}
	}
	return result, nil
}
