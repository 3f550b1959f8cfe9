package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/mailsift/mailsift/internal/model"
)

// CategoryDefinitions loads category definitions from the active viper
// config. It returns nil when the config carries none so callers can fall
// back to the compiled-in defaults.
func CategoryDefinitions() ([]model.CategoryDefinition, error) {
	if !viper.IsSet("categories") {
		return nil, nil
	}

	var defs []model.CategoryDefinition
	err := viper.UnmarshalKey("categories", &defs, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse categories config: %w", err)
	}

	for i := range defs {
		defs[i].ID = strings.ToLower(strings.TrimSpace(defs[i].ID))
		if defs[i].ID == "" {
			return nil, fmt.Errorf("category at index %d is missing an id", i)
		}
		if defs[i].Name == "" {
			defs[i].Name = defs[i].ID
		}
		if defs[i].Weight == 0 {
			defs[i].Weight = 1.0
		}
	}

	return defs, nil
}
