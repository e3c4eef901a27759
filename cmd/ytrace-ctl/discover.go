package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/ytrace-dev/ytrace/ytracectl"
)

type discoverConfig struct {
	*rootConfig
}

// Exec lists every control socket in the socket dir, including stale ones
// left behind by processes that died without cleaning up.
func (cfg *discoverConfig) Exec(ctx context.Context, args []string) error {
	sockets, err := ytracectl.FindSockets()
	if err != nil {
		return err
	}

	if len(sockets) == 0 {
		fmt.Fprintf(cfg.stdout, "No control sockets found in %s.\n", ytracectl.SocketDir())
		return nil
	}

	tw := tabwriter.NewWriter(cfg.stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "SOCKET\tPID\tSTATE\n")
	for _, s := range sockets {
		state := "stale"
		switch {
		case s.PID <= 0:
			state = "unknown"
		case ytracectl.Alive(s.PID):
			state = "live"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Path, s.PID, state)
	}
	return tw.Flush()
}
