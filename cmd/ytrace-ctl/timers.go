package main

import (
	"context"
	"fmt"
	"strings"
)

type timersConfig struct {
	*rootConfig
}

func (cfg *timersConfig) Exec(ctx context.Context, args []string) error {
	t, err := cfg.resolveTarget()
	if err != nil {
		return err
	}

	ctx, cancel := cfg.requestContext(ctx)
	defer cancel()

	summary, err := t.TimerSummary(ctx)
	if err != nil {
		return err
	}

	fmt.Fprint(cfg.stdout, summary)
	if !strings.HasSuffix(summary, "\n") {
		fmt.Fprintln(cfg.stdout)
	}
	return nil
}
