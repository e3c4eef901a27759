package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
	"github.com/peterbourgon/unixtransport"
	"github.com/ytrace-dev/ytrace/ytracectl"
	"github.com/ytrace-dev/ytrace/ytraceweb"
)

type rootConfig struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	pid      int
	socket   string
	uri      string
	timeout  time.Duration
	logLevel string

	all       bool
	files     []string
	functions []string
	levels    []string
	messages  []string
	lines     []int

	filter ytracectl.Filter

	info, debug *log.Logger
}

func (cfg *rootConfig) registerBaseFlags(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'p',
		LongName:    "pid",
		Value:       ffval.NewValue(&cfg.pid),
		Usage:       "target the process with this PID via its control socket",
		Placeholder: "PID",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   's',
		LongName:    "socket",
		Value:       ffval.NewValue(&cfg.socket),
		Usage:       "target this control socket path directly",
		Placeholder: "PATH",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'u',
		LongName:    "uri",
		Value:       ffval.NewValue(&cfg.uri),
		Usage:       "target an HTTP endpoint, e.g. 'localhost:8080/ytrace' or 'http+unix://...'",
		Placeholder: "URI",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName:    "timeout",
		Value:       ffval.NewValueDefault(&cfg.timeout, 5*time.Second),
		Usage:       "per-request timeout",
		Placeholder: "DURATION",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'l',
		LongName:    "log",
		Value:       ffval.NewEnum(&cfg.logLevel, "info", "i", "debug", "d", "none", "n"),
		Usage:       "log level: i/info, d/debug, n/none",
		Placeholder: "LEVEL",
	})
}

func (cfg *rootConfig) registerFilterFlags(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{
		ShortName: 'a',
		LongName:  "all",
		Value:     ffval.NewValue(&cfg.all),
		Usage:     "match every trace point",
		NoDefault: true,
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'f',
		LongName:    "file",
		Value:       ffval.NewList(&cfg.files),
		Usage:       "match source files against this regex (repeatable)",
		Placeholder: "REGEX",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'F',
		LongName:    "function",
		Value:       ffval.NewList(&cfg.functions),
		Usage:       "match function names against this regex (repeatable)",
		Placeholder: "REGEX",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'n',
		LongName:    "line",
		Value:       ffval.NewList(&cfg.lines),
		Usage:       "match this exact line number (repeatable)",
		Placeholder: "LINE",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'L',
		LongName:    "level",
		Value:       ffval.NewList(&cfg.levels),
		Usage:       "match levels against this regex (repeatable)",
		Placeholder: "REGEX",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'm',
		LongName:    "message",
		Value:       ffval.NewList(&cfg.messages),
		Usage:       "match messages against this regex (repeatable)",
		Placeholder: "REGEX",
	})
}

func (cfg *rootConfig) buildFilter() (err error) {
	cfg.filter, err = ytracectl.NewFilter(cfg.all, cfg.files, cfg.functions, cfg.levels, cfg.messages, cfg.lines)
	return err
}

// resolveTarget picks the process to talk to: --uri wins, then --socket,
// then --pid, and with no flags at all the single live traced process on
// this machine. More than one live process is an error rather than a guess.
func (cfg *rootConfig) resolveTarget() (target, error) {
	switch {
	case cfg.uri != "":
		transport := &http.Transport{}
		unixtransport.Register(transport)
		client := ytraceweb.NewClient(&http.Client{Transport: transport}, cfg.uri)
		cfg.debug.Printf("target: URI %s", cfg.uri)
		return &httpTarget{client: client}, nil

	case cfg.socket != "":
		cfg.debug.Printf("target: socket %s", cfg.socket)
		return &socketTarget{path: cfg.socket, debug: cfg.debug}, nil

	case cfg.pid != 0:
		s, ok := ytracectl.SocketForPID(cfg.pid)
		if !ok {
			return nil, fmt.Errorf("no control socket found for PID %d", cfg.pid)
		}
		cfg.debug.Printf("target: PID %d, socket %s", cfg.pid, s.Path)
		return &socketTarget{path: s.Path, debug: cfg.debug}, nil

	default:
		procs, err := ytracectl.FindProcesses()
		if err != nil {
			return nil, err
		}
		switch len(procs) {
		case 0:
			return nil, fmt.Errorf("no traced processes found, specify --pid, --socket, or --uri")
		case 1:
			cfg.debug.Printf("target: PID %d, socket %s", procs[0].PID, procs[0].Socket)
			return &socketTarget{path: procs[0].Socket, debug: cfg.debug}, nil
		default:
			var pids []string
			for _, p := range procs {
				pids = append(pids, fmt.Sprint(p.PID))
			}
			return nil, fmt.Errorf("multiple traced processes found (PIDs %s), specify --pid", strings.Join(pids, " "))
		}
	}
}

func (cfg *rootConfig) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if cfg.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.timeout)
}
