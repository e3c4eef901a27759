package main

import (
	"context"
	"fmt"

	"github.com/ytrace-dev/ytrace"
)

type toggleConfig struct {
	*rootConfig

	state bool
}

// Exec enables or disables the points matching the filter. The filter is
// applied client-side against a fresh listing, and the matches go back to
// the server as one batch of specs.
func (cfg *toggleConfig) Exec(ctx context.Context, args []string) error {
	if cfg.filter.Empty() {
		return fmt.Errorf("a filter is required, pass --all to target every trace point")
	}

	t, err := cfg.resolveTarget()
	if err != nil {
		return err
	}

	ctx, cancel := cfg.requestContext(ctx)
	defer cancel()

	points, err := t.Points(ctx)
	if err != nil {
		return err
	}

	matched := cfg.filter.Apply(points)
	if len(matched) == 0 {
		fmt.Fprintln(cfg.stdout, "No trace points matched the filter.")
		return nil
	}

	var specs []string
	for _, p := range matched {
		spec, err := ytrace.EncodeSpec(p.PointID)
		if err != nil {
			cfg.debug.Printf("skipping %s:%d: %v", p.File, p.Line, err)
			continue
		}
		specs = append(specs, spec)
	}

	applied, err := t.Toggle(ctx, cfg.state, specs)
	if err != nil {
		return err
	}

	verb := "Disabled"
	if cfg.state {
		verb = "Enabled"
	}
	fmt.Fprintf(cfg.stdout, "%s %d trace point(s)\n", verb, applied)
	return nil
}
