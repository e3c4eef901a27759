package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ytrace-dev/ytrace"
	"github.com/ytrace-dev/ytrace/ytracectl"
	"github.com/ytrace-dev/ytrace/ytraceweb"
)

// A target is one process's control surface, reached either over the unix
// control socket or over a ytraceweb HTTP endpoint.
type target interface {
	Points(ctx context.Context) ([]ytracectl.ListedPoint, error)
	Toggle(ctx context.Context, state bool, specs []string) (int, error)
	TimerSummary(ctx context.Context) (string, error)
}

//
//
//

type socketTarget struct {
	path  string
	debug *log.Logger
}

var _ target = (*socketTarget)(nil)

func (t *socketTarget) Points(ctx context.Context) ([]ytracectl.ListedPoint, error) {
	response, err := ytracectl.Send(ctx, t.path, "list")
	if err != nil {
		return nil, err
	}
	return ytracectl.ParseListing(response), nil
}

func (t *socketTarget) Toggle(ctx context.Context, state bool, specs []string) (int, error) {
	verb := "disable"
	if state {
		verb = "enable"
	}

	command := strings.TrimSpace(verb + " " + strings.Join(specs, " "))
	t.debug.Printf("command: %s", command)

	response, err := ytracectl.Send(ctx, t.path, command)
	if err != nil {
		return 0, err
	}

	var reportedVerb string
	var applied int
	if _, err := fmt.Sscanf(response, "OK: %s %d trace point(s)", &reportedVerb, &applied); err != nil {
		return 0, fmt.Errorf("unexpected response %q", strings.TrimSpace(response))
	}
	return applied, nil
}

func (t *socketTarget) TimerSummary(ctx context.Context) (string, error) {
	return ytracectl.Send(ctx, t.path, "timers")
}

//
//
//

type httpTarget struct {
	client *ytraceweb.Client
}

var _ target = (*httpTarget)(nil)

func (t *httpTarget) Points(ctx context.Context) ([]ytracectl.ListedPoint, error) {
	state, err := t.client.State(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]ytracectl.ListedPoint, 0, len(state.Points))
	for _, p := range state.Points {
		points = append(points, ytracectl.ListedPoint{
			Index:   p.Index,
			Enabled: p.Enabled,
			PointID: ytrace.PointID{
				File:     p.File,
				Line:     p.Line,
				Function: p.Function,
				Level:    p.Level,
				Message:  p.Message,
			},
		})
	}
	return points, nil
}

func (t *httpTarget) Toggle(ctx context.Context, state bool, specs []string) (int, error) {
	action := "disable"
	if state {
		action = "enable"
	}
	return t.client.Toggle(ctx, action, specs)
}

func (t *httpTarget) TimerSummary(ctx context.Context) (string, error) {
	state, err := t.client.State(ctx)
	if err != nil {
		return "", err
	}

	if len(state.Timers) == 0 {
		return "(no timers)\n", nil
	}

	var sb strings.Builder
	for _, tm := range state.Timers {
		fmt.Fprintf(&sb, "%s: count=%d avg=%s min=%s max=%s\n",
			tm.Label, tm.Count,
			ytrace.FormatDuration(tm.AvgNs),
			ytrace.FormatDuration(tm.MinNs),
			ytrace.FormatDuration(tm.MaxNs),
		)
	}
	return sb.String(), nil
}
