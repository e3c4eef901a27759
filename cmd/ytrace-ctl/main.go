// ytrace-ctl inspects and toggles trace points in running processes, over
// the control socket or over a ytraceweb HTTP endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"syscall"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

func main() {
	var (
		ctx    = context.Background()
		stdin  = os.Stdin
		stdout = os.Stdout
		stderr = os.Stderr
		args   = os.Args[1:]
	)
	err := exec(ctx, stdin, stdout, stderr, args)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.As(err, &(run.SignalError{})):
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func exec(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) (err error) {
	rootConfig := &rootConfig{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	rootFlags := ff.NewFlagSet("base")
	rootConfig.registerBaseFlags(rootFlags)

	filterFlags := ff.NewFlagSet("filter").SetParent(rootFlags)
	rootConfig.registerFilterFlags(filterFlags)

	rootCommand := &ff.Command{
		Name:      "ytrace-ctl",
		ShortHelp: "control trace points in running processes",
		Flags:     rootFlags,
	}

	// Config for `ytrace-ctl list`.
	listConfig := &listConfig{rootConfig: rootConfig}
	listCommand := &ff.Command{
		Name:      "list",
		ShortHelp: "list trace points, optionally filtered",
		Flags:     ff.NewFlagSet("list").SetParent(filterFlags),
		Exec:      listConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, listCommand)

	// Config for `ytrace-ctl enable`.
	enableConfig := &toggleConfig{rootConfig: rootConfig, state: true}
	enableCommand := &ff.Command{
		Name:      "enable",
		ShortHelp: "enable the trace points matching the filter",
		LongHelp:  "A filter is required. Pass --all to target every trace point.",
		Flags:     ff.NewFlagSet("enable").SetParent(filterFlags),
		Exec:      enableConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, enableCommand)

	// Config for `ytrace-ctl disable`.
	disableConfig := &toggleConfig{rootConfig: rootConfig, state: false}
	disableCommand := &ff.Command{
		Name:      "disable",
		ShortHelp: "disable the trace points matching the filter",
		LongHelp:  "A filter is required. Pass --all to target every trace point.",
		Flags:     ff.NewFlagSet("disable").SetParent(filterFlags),
		Exec:      disableConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, disableCommand)

	// Config for `ytrace-ctl timers`.
	timersConfig := &timersConfig{rootConfig: rootConfig}
	timersCommand := &ff.Command{
		Name:      "timers",
		ShortHelp: "dump timer aggregates",
		Flags:     ff.NewFlagSet("timers").SetParent(rootFlags),
		Exec:      timersConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, timersCommand)

	// Config for `ytrace-ctl ps`.
	psConfig := &psConfig{rootConfig: rootConfig}
	psCommand := &ff.Command{
		Name:      "ps",
		ShortHelp: "list live traced processes",
		Flags:     ff.NewFlagSet("ps").SetParent(rootFlags),
		Exec:      psConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, psCommand)

	// Config for `ytrace-ctl discover`.
	discoverConfig := &discoverConfig{rootConfig: rootConfig}
	discoverCommand := &ff.Command{
		Name:      "discover",
		ShortHelp: "list every control socket, live or stale",
		Flags:     ff.NewFlagSet("discover").SetParent(rootFlags),
		Exec:      discoverConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, discoverCommand)

	// Print help when appropriate.
	showHelp := true
	defer func() {
		errHelp := errors.Is(err, ff.ErrHelp) || errors.Is(err, ff.ErrNoExec)
		if showHelp || errHelp {
			fmt.Fprintf(stderr, "\n%s\n", ffhelp.Command(rootCommand))
		}
		if errHelp {
			err = nil
		}
	}()

	// Initial parsing.
	if err := rootCommand.Parse(args, ff.WithEnvVarPrefix("YTRACE")); err != nil {
		return err
	}

	// Validation and set-up.
	{
		var infodst, debugdst io.Writer
		switch rootConfig.logLevel {
		case "n", "none":
			infodst, debugdst = io.Discard, io.Discard
		case "i", "info":
			infodst, debugdst = stderr, io.Discard
		case "d", "debug":
			infodst, debugdst = stderr, stderr
		default:
			return fmt.Errorf("invalid log level %q", rootConfig.logLevel)
		}
		rootConfig.info = log.New(infodst, "", 0)
		rootConfig.debug = log.New(debugdst, "[DEBUG] ", log.Lmsgprefix)
	}

	if err := rootConfig.buildFilter(); err != nil {
		return err
	}

	// Run errors shouldn't show help by default.
	showHelp = false

	// Run the selected command, interruptible by signal.
	var g run.Group

	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return rootCommand.Run(ctx)
		}, func(error) {
			cancel()
		})
	}

	{
		g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	}

	return g.Run()
}
