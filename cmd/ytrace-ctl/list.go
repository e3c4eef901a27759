package main

import (
	"context"
	"fmt"
)

type listConfig struct {
	*rootConfig
}

// Exec lists trace points. Unlike enable and disable, an empty filter means
// everything: listing is read-only, so defaulting wide is harmless.
func (cfg *listConfig) Exec(ctx context.Context, args []string) error {
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

	if !cfg.filter.Empty() {
		points = cfg.filter.Apply(points)
	}

	if len(points) == 0 {
		fmt.Fprintln(cfg.stdout, "No trace points.")
		return nil
	}

	for _, p := range points {
		fmt.Fprintln(cfg.stdout, p.Render())
	}
	return nil
}
