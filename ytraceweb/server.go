// Package ytraceweb exposes a registry over HTTP with a JSON API, for
// processes that already serve HTTP and for control clients that prefer a
// URL over a raw unix socket. The API mirrors the control protocol: read
// the point and timer state with GET, mutate it with POST.
package ytraceweb

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ytrace-dev/ytrace"
)

const maxRequestBodySizeBytes = 1 * 1024 * 1024

// Point is the JSON rendering of one registered trace point.
type Point struct {
	Index    int    `json:"index"`
	Enabled  bool   `json:"enabled"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
	Level    string `json:"level"`
	Message  string `json:"message"`
}

// Timer is the JSON rendering of one timer label's aggregate stats.
// Durations are nanoseconds, matching the units the aggregator keeps.
type Timer struct {
	Label string  `json:"label"`
	Count uint64  `json:"count"`
	AvgNs float64 `json:"avg_ns"`
	MinNs float64 `json:"min_ns"`
	MaxNs float64 `json:"max_ns"`
}

// StateData is returned by GET requests.
type StateData struct {
	Points []Point `json:"points"`
	Timers []Timer `json:"timers"`
}

// ToggleRequest is the body of a POST request. Action is one of enable,
// disable, enable-all, or disable-all. Specs carries batch specs in the
// control protocol's encoding and is consulted only by enable and disable.
type ToggleRequest struct {
	Action string   `json:"action"`
	Specs  []string `json:"specs,omitempty"`
}

// ToggleResponse reports how many points a toggle applied to.
type ToggleResponse struct {
	Action  string `json:"action"`
	Applied int    `json:"applied"`
}

type Server struct {
	registry *ytrace.Registry
}

var _ http.Handler = (*Server)(nil)

func NewServer(registry *ytrace.Registry) *Server {
	return &Server{
		registry: registry,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleState(w, r)
	case http.MethodPost:
		s.handleToggle(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	data := StateData{
		Points: []Point{},
		Timers: []Timer{},
	}

	s.registry.ForEach(func(p *ytrace.TracePoint) {
		id := p.ID()
		data.Points = append(data.Points, Point{
			Index:    p.Index(),
			Enabled:  p.Enabled(),
			File:     id.File,
			Line:     id.Line,
			Function: id.Function,
			Level:    id.Level,
			Message:  id.Message,
		})
	})

	for _, ls := range s.registry.Timers().All() {
		data.Timers = append(data.Timers, Timer{
			Label: ls.Label,
			Count: ls.Count,
			AvgNs: ls.Avg,
			MinNs: ls.Min,
			MaxNs: ls.Max,
		})
	}

	renderJSON(w, http.StatusOK, data)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySizeBytes)

	var req ToggleRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decode request: %v", err), http.StatusBadRequest)
		return
	}

	var applied int
	switch req.Action {
	case "enable-all":
		applied = s.registry.SetAllEnabled(true)

	case "disable-all":
		applied = s.registry.SetAllEnabled(false)

	case "enable", "disable":
		state := req.Action == "enable"
		for _, spec := range req.Specs {
			id, err := ytrace.DecodeSpec(spec)
			if err != nil {
				continue
			}
			if s.registry.SetEnabled(id, state) {
				applied++
			}
		}

	default:
		http.Error(w, fmt.Sprintf("unknown action %q", req.Action), http.StatusBadRequest)
		return
	}

	renderJSON(w, http.StatusOK, ToggleResponse{
		Action:  req.Action,
		Applied: applied,
	})
}

func renderJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
