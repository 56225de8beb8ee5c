package stats

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	svcErr "github.com/oggyb/presence-gateway/internal/errors"
)

// RequestType selects which projection of the player document is returned.
type RequestType string

const (
	NetworkLevel      RequestType = "network_level"
	BedwarsLevel      RequestType = "bedwars_level"
	SkywarsExperience RequestType = "skywars_experience"
	BedwarsData       RequestType = "bedwars_data"
)

func (t RequestType) Valid() bool {
	switch t {
	case NetworkLevel, BedwarsLevel, SkywarsExperience, BedwarsData:
		return true
	}
	return false
}

var bedwarsFields = []string{
	"final_kills_bedwars",
	"final_deaths_bedwars",
	"beds_broken_bedwars",
	"deaths_bedwars",
	"kills_bedwars",
	"losses_bedwars",
	"wins_bedwars",
	"winstreak",
}

// Project renders the requested view of a cached player document as JSON.
// Missing numeric fields read as -1 (levels) or 0 (Bedwars counters);
// bedwars_data for a player without Bedwars stats is ErrNotFound.
func Project(t RequestType, player []byte) (json.RawMessage, error) {
	doc := gjson.ParseBytes(player)

	var out map[string]any
	switch t {
	case NetworkLevel:
		exp := doc.Get("networkExp").Float()
		exp += TotalExpToFullLevel(doc.Get("networkLevel").Float() + 1)
		out = map[string]any{"network_level": ExactLevel(exp)}

	case BedwarsLevel:
		out = map[string]any{"bedwars_level": intOr(doc.Get("achievements.bedwars_level"), -1)}

	case SkywarsExperience:
		out = map[string]any{"skywars_experience": intOr(doc.Get("stats.SkyWars.skywars_experience"), -1)}

	case BedwarsData:
		bedwars := doc.Get("stats.Bedwars")
		if !bedwars.IsObject() {
			return nil, fmt.Errorf("player has no bedwars stats: %w", svcErr.ErrNotFound)
		}
		out = make(map[string]any, len(bedwarsFields))
		for _, f := range bedwarsFields {
			out[f] = uint64(max(intOr(bedwars.Get(f), 0), 0))
		}

	default:
		return nil, fmt.Errorf("unknown request type %q", t)
	}

	return json.Marshal(out)
}

func intOr(r gjson.Result, def int64) int64 {
	if r.Type != gjson.Number {
		return def
	}
	return r.Int()
}
