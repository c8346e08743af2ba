package config_test

import (
	"fmt"

	"github.com/wonny/fundlens/pkg/config"
)

// Example demonstrates loading configuration at startup.
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		return
	}

	// Components receive the sub-config they need, never the environment.
	_ = cfg.Sources.EODAPIKey // empty when unset; the EODHD source is skipped
	_ = cfg.Analysis.YearsBack
	_ = cfg.Cache.Backend
}
