package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// GeishaTemplate describes one of the seven geisha before any game-specific
// state (controlledBy) is attached.
type GeishaTemplate struct {
	Name  string `json:"name"`
	Charm int    `json:"charm"`
}

// AITier holds the think-latency and policy knobs for one AI difficulty.
type AITier struct {
	Name         string `json:"name"`
	ThinkDelayMS int    `json:"thinkDelayMs"`
	// ActionPolicy is one of "random", "heuristic", "minimax".
	ActionPolicy string `json:"actionPolicy"`
}

// Config holds all configurable server parameters.
type Config struct {
	Port           int      `json:"port"`
	NodeEnv        string   `json:"nodeEnv"`
	RedisURL       string   `json:"redisUrl"`
	RoomTTLSeconds int      `json:"roomTtlSeconds"`
	CORSOrigins    []string `json:"corsOrigins"`

	// Timing knobs named after the sub-protocol stages they drive.
	OrderDecisionGraceMS       int `json:"orderDecisionGraceMs"`
	OrderDecisionRevealDelayMS int `json:"orderDecisionRevealDelayMs"`
	RoundAdvanceDelayMS        int `json:"roundAdvanceDelayMs"`

	// GeishaSets maps a set key (e.g. "default", "akatsuki") to its seven
	// geisha templates. The roster is a parameter, not a hardcoded list.
	GeishaSets       map[string][7]GeishaTemplate `json:"geishaSets"`
	DefaultGeishaSet string                       `json:"defaultGeishaSet"`

	// AITiers maps a difficulty name (easy/medium/hard/expert/hell) to its params.
	AITiers map[string]AITier `json:"aiTiers"`
}

// Defaults returns a Config with every default value the protocol names.
func Defaults() *Config {
	return &Config{
		Port:                       3001,
		NodeEnv:                    "development",
		RedisURL:                   "",
		RoomTTLSeconds:             3600,
		CORSOrigins:                []string{"*"},
		OrderDecisionGraceMS:       300,
		OrderDecisionRevealDelayMS: 2000,
		RoundAdvanceDelayMS:        2500,
		DefaultGeishaSet:           "default",
		GeishaSets:                 defaultGeishaSets(),
		AITiers: map[string]AITier{
			"easy":   {Name: "easy", ThinkDelayMS: 1400, ActionPolicy: "random"},
			"medium": {Name: "medium", ThinkDelayMS: 1000, ActionPolicy: "heuristic"},
			"hard":   {Name: "hard", ThinkDelayMS: 700, ActionPolicy: "heuristic"},
			"expert": {Name: "expert", ThinkDelayMS: 500, ActionPolicy: "minimax"},
			"hell":   {Name: "hell", ThinkDelayMS: 350, ActionPolicy: "minimax"},
		},
	}
}

// defaultGeishaSets returns the built-in geisha rosters. Charm distribution
// is fixed ({2,2,2,3,3,4,5}, sum 21); only names vary per set.
func defaultGeishaSets() map[string][7]GeishaTemplate {
	charms := [7]int{2, 2, 2, 3, 3, 4, 5}
	mk := func(names [7]string) [7]GeishaTemplate {
		var out [7]GeishaTemplate
		for i, n := range names {
			out[i] = GeishaTemplate{Name: n, Charm: charms[i]}
		}
		return out
	}
	return map[string][7]GeishaTemplate{
		"default":  mk([7]string{"Kinu", "Sayuri", "Hina", "Yume", "Mai", "Momoko", "Ren"}),
		"akatsuki": mk([7]string{"Akatsuki", "Rindo", "Ayame", "Chiyo", "Fubuki", "Kaguya", "Suzume"}),
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	// Try to load from config.json
	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			log.Printf("Warning: failed to parse config.json: %v", err)
		}
	}

	// Environment variable overrides
	overrideInt(&cfg.Port, "PORT")
	overrideString(&cfg.NodeEnv, "NODE_ENV")
	overrideString(&cfg.RedisURL, "REDIS_URL")
	overrideInt(&cfg.RoomTTLSeconds, "ROOM_TTL_SECONDS")

	return cfg
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
