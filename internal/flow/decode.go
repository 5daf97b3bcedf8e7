package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingID is returned for snapshots without a graph id.
	ErrMissingID = errors.New("snapshot has no graph_id")
	// ErrUnsupportedFormat is returned for snapshot files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported snapshot format")
)

// Format identifies a snapshot encoding.
type Format string

// Supported snapshot encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// snapshot is the wire form: timestamps are epoch milliseconds, absent ones
// are null or omitted.
type snapshot struct {
	GraphID    string       `json:"graph_id" yaml:"graph_id"`
	FlowID     string       `json:"flow_id,omitempty" yaml:"flow_id,omitempty"`
	FunctionID string       `json:"function_id" yaml:"function_id"`
	Created    *int64       `json:"created" yaml:"created"`
	MainEnded  *int64       `json:"main_ended" yaml:"main_ended"`
	Finished   *int64       `json:"finished" yaml:"finished"`
	Nodes      []stageEntry `json:"nodes" yaml:"nodes"`
}

type stageEntry struct {
	StageID      string   `json:"stage_id" yaml:"stage_id"`
	Op           string   `json:"op" yaml:"op"`
	State        State    `json:"state" yaml:"state"`
	Created      *int64   `json:"created" yaml:"created"`
	Started      *int64   `json:"started" yaml:"started"`
	Completed    *int64   `json:"completed" yaml:"completed"`
	Dependencies []string `json:"dependencies" yaml:"dependencies"`
	CallID       string   `json:"call_id,omitempty" yaml:"call_id,omitempty"`
}

// Decode reads a snapshot in the given format.
func Decode(r io.Reader, format Format) (*Graph, error) {
	var s snapshot
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode json snapshot: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode yaml snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return s.graph()
}

// Load reads a snapshot file, choosing the format by extension.
func Load(path string) (*Graph, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	g, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Encode writes a graph as a JSON snapshot.
func Encode(w io.Writer, g *Graph) error {
	s := snapshot{
		GraphID:    g.ID,
		FunctionID: g.FunctionID,
		Created:    toMillis(g.Created),
		MainEnded:  toMillis(g.MainEnded),
		Finished:   toMillis(g.Finished),
		Nodes:      make([]stageEntry, 0, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		s.Nodes = append(s.Nodes, stageEntry{
			StageID:      n.StageID,
			Op:           n.Op,
			State:        n.State,
			Created:      toMillis(n.Created),
			Started:      toMillis(n.Started),
			Completed:    toMillis(n.Completed),
			Dependencies: n.Dependencies,
			CallID:       n.CallID,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func (s snapshot) graph() (*Graph, error) {
	id := s.GraphID
	if id == "" {
		id = s.FlowID
	}
	if id == "" {
		return nil, ErrMissingID
	}

	g := &Graph{
		ID:         id,
		FunctionID: s.FunctionID,
		Created:    fromMillis(s.Created),
		MainEnded:  fromMillis(s.MainEnded),
		Finished:   fromMillis(s.Finished),
		Nodes:      make([]Stage, 0, len(s.Nodes)),
	}
	for _, n := range s.Nodes {
		state := n.State
		if state == "" {
			state = StatePending
		}
		g.Nodes = append(g.Nodes, Stage{
			StageID:      n.StageID,
			Op:           n.Op,
			State:        state,
			Created:      fromMillis(n.Created),
			Started:      fromMillis(n.Started),
			Completed:    fromMillis(n.Completed),
			Dependencies: n.Dependencies,
			CallID:       n.CallID,
		})
	}
	return g, nil
}

func fromMillis(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return time.UnixMilli(*ms)
}

func toMillis(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
