package visualization

import (
	"github.com/san-kum/robodiagram/internal/geometry"
	"github.com/san-kum/robodiagram/internal/lcm"
)

// Config selects which visualization messages a diagram publishes.
type Config struct {
	// LcmBus names the bus in the registry passed to ApplyConfig.
	LcmBus string `yaml:"lcm_bus"`

	PublishPeriod float64 `yaml:"publish_period"`

	PublishIllustration      bool          `yaml:"publish_illustration"`
	DefaultIllustrationColor geometry.Rgba `yaml:"default_illustration_color"`

	PublishProximity      bool          `yaml:"publish_proximity"`
	DefaultProximityColor geometry.Rgba `yaml:"default_proximity_color"`

	PublishContacts bool `yaml:"publish_contacts"`
}

// DefaultConfig publishes everything on the default bus at the visualizer's
// default rate and color.
func DefaultConfig() Config {
	params := geometry.DefaultVisualizerParams()
	return Config{
		LcmBus:                   lcm.DefaultBusName,
		PublishPeriod:            params.PublishPeriod,
		PublishIllustration:      true,
		DefaultIllustrationColor: params.DefaultColor,
		PublishProximity:         true,
		DefaultProximityColor:    geometry.NewRgba(0.8, 0.1, 0.1, 0.25),
		PublishContacts:          true,
	}
}

// ConvertConfigToParams returns the visualizer parameters cfg asks for: the
// illustration set first, then the proximity set.
func ConvertConfigToParams(cfg Config) []geometry.VisualizerParams {
	var out []geometry.VisualizerParams
	if cfg.PublishIllustration {
		out = append(out, geometry.VisualizerParams{
			Role:                 geometry.RoleIllustration,
			DefaultColor:         cfg.DefaultIllustrationColor,
			PublishPeriod:        cfg.PublishPeriod,
			ShowHydroelastic:     false,
			UseRoleChannelSuffix: false,
		})
	}
	if cfg.PublishProximity {
		out = append(out, geometry.VisualizerParams{
			Role:                 geometry.RoleProximity,
			DefaultColor:         cfg.DefaultProximityColor,
			PublishPeriod:        cfg.PublishPeriod,
			ShowHydroelastic:     true,
			UseRoleChannelSuffix: true,
		})
	}
	return out
}
