package mylisp

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Trace captures one top-level evaluation: the input text, each
// S-expression reduction in completion order, and the final result.
type Trace struct {
	ID        string `yaml:"id"`
	Entry     string `yaml:"entry"`
	Steps     []Step `yaml:"steps,omitempty"`
	Result    string `yaml:"result"`
	Error     string `yaml:"error,omitempty"` // set when Result is an Error value
	Timestamp string `yaml:"timestamp"`
}

// Step is one S-expression reduction. Depth 0 is the outermost expression.
type Step struct {
	Depth  int    `yaml:"depth"`
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// NewTrace starts a trace for entry.
func NewTrace(entry string) *Trace {
	return &Trace{
		ID:        NextID(),
		Entry:     entry,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (t *Trace) record(depth int, input string, out Value) {
	t.Steps = append(t.Steps, Step{Depth: depth, Input: input, Output: out.String()})
}

// Finish stores the final result.
func (t *Trace) Finish(result Value) {
	t.Result = result.String()
	if result.Kind == ValErr {
		t.Error = result.ErrKind.String()
	}
}

// WriteYAML renders traces as a YAML document.
func WriteYAML(w io.Writer, traces ...*Trace) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(traces); err != nil {
		return fmt.Errorf("encode traces: %w", err)
	}
	return enc.Close()
}

// Fprint writes the reduction steps of t, indented by depth.
func (t *Trace) Fprint(w io.Writer) error {
	for _, s := range t.Steps {
		if _, err := fmt.Fprintf(w, "%*s%s => %s\n", s.Depth*2, "", s.Input, s.Output); err != nil {
			return err
		}
	}
	return nil
}
