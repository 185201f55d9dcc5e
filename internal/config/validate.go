package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// Validate checks a Config against the embedded CUE schema, plus the
// cross-field ordering constraint the schema cannot express: the lifecycle
// ladder must be strictly ordered (dormant < unresolved < vanished) and the
// divergence cutoff must sit below the inclusion cutoff.
func Validate(cfg Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup #Config: %w", err)
	}

	val := ctx.Encode(map[string]any{
		"tick_window":        cfg.TickWindow,
		"jaccard_inclusion":  cfg.JaccardInclusion,
		"jaccard_divergence": cfg.JaccardDivergence,
		"dormant_after":      cfg.DormantAfter,
		"unresolved_after":   cfg.UnresolvedAfter,
		"vanished_after":     cfg.VanishedAfter,
		"mode":               string(cfg.Mode),
	})
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}

	if !(cfg.DormantAfter < cfg.UnresolvedAfter && cfg.UnresolvedAfter < cfg.VanishedAfter) {
		return fmt.Errorf("invalid config: lifecycle offsets must be ordered dormant_after(%d) < unresolved_after(%d) < vanished_after(%d)",
			cfg.DormantAfter, cfg.UnresolvedAfter, cfg.VanishedAfter)
	}
	if cfg.JaccardDivergence >= cfg.JaccardInclusion {
		return fmt.Errorf("invalid config: jaccard_divergence(%d) must be below jaccard_inclusion(%d)",
			cfg.JaccardDivergence, cfg.JaccardInclusion)
	}

	return nil
}
