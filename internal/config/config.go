// Package config holds the externally supplied tuning surface of the engine.
//
// Every threshold the engine consults lives here, never hardcoded at the
// call site: the temporal adjacency window, the Jaccard inclusion and
// divergence cutoffs, the lifecycle tick offsets, and the strict/trusted
// admission mode. Values load through viper (file, environment, defaults)
// and are validated against an embedded CUE schema before use.
//
// Jaccard thresholds are expressed in per-mille (0..1000) so that threshold
// comparison stays in integer arithmetic end to end; no float ever enters a
// deterministic code path.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Mode selects the admission gate's edge-kind allowlist.
type Mode string

const (
	// ModeStrict admits only HYPERLINK edges.
	ModeStrict Mode = "strict"

	// ModeTrusted additionally admits SEQUENTIAL edges from the
	// analyst-curated source class.
	ModeTrusted Mode = "trusted"
)

// Config is the full engine configuration surface.
type Config struct {
	// TickWindow is the temporal adjacency window for heuristic thread
	// matching, in ticks. Default 24 (one "hour" per tick in the default
	// deployment).
	TickWindow int64 `mapstructure:"tick_window"`

	// JaccardInclusion is the minimum lexical overlap for heuristic
	// attachment, per-mille. A fragment joins a thread when
	// overlap*1000 > JaccardInclusion*union.
	JaccardInclusion int64 `mapstructure:"jaccard_inclusion"`

	// JaccardDivergence is the cross-source divergence signal threshold,
	// per-mille. Two same-tick fragments from different sources with
	// overlap below this raise a divergence marker.
	JaccardDivergence int64 `mapstructure:"jaccard_divergence"`

	// DormantAfter is the silence in ticks after which an ACTIVE thread
	// goes DORMANT.
	DormantAfter int64 `mapstructure:"dormant_after"`

	// UnresolvedAfter is the cumulative silence in ticks after which a
	// DORMANT thread goes UNRESOLVED and an absence block is emitted.
	UnresolvedAfter int64 `mapstructure:"unresolved_after"`

	// VanishedAfter is the cumulative silence in ticks after which a
	// thread terminates at VANISHED.
	VanishedAfter int64 `mapstructure:"vanished_after"`

	// Mode is the admission gate mode: strict or trusted.
	Mode Mode `mapstructure:"mode"`
}

// Default returns the configuration mirroring the source system's behavior:
// 24-tick adjacency window, Jaccard 0.3 inclusion / 0.2 divergence,
// lifecycle offsets 2/3/10, strict admission.
func Default() Config {
	return Config{
		TickWindow:        24,
		JaccardInclusion:  300,
		JaccardDivergence: 200,
		DormantAfter:      2,
		UnresolvedAfter:   3,
		VanishedAfter:     10,
		Mode:              ModeStrict,
	}
}

// Load reads configuration from an optional YAML file and WEFT_-prefixed
// environment variables, layered over defaults. Pass an empty path to use
// defaults and environment only. The result is schema-validated.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("tick_window", def.TickWindow)
	v.SetDefault("jaccard_inclusion", def.JaccardInclusion)
	v.SetDefault("jaccard_divergence", def.JaccardDivergence)
	v.SetDefault("dormant_after", def.DormantAfter)
	v.SetDefault("unresolved_after", def.UnresolvedAfter)
	v.SetDefault("vanished_after", def.VanishedAfter)
	v.SetDefault("mode", string(def.Mode))

	v.SetEnvPrefix("WEFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
