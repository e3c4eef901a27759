package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/ytrace-dev/ytrace/ytracectl"
)

type psConfig struct {
	*rootConfig
}

func (cfg *psConfig) Exec(ctx context.Context, args []string) error {
	procs, err := ytracectl.FindProcesses()
	if err != nil {
		return err
	}

	if len(procs) == 0 {
		fmt.Fprintln(cfg.stdout, "No traced processes found.")
		return nil
	}

	tw := tabwriter.NewWriter(cfg.stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "PID\tSOCKET\tCMDLINE\n")
	for _, p := range procs {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", p.PID, p.Socket, p.Cmdline)
	}
	return tw.Flush()
}
