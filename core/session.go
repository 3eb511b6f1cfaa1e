package mylisp

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Session is an append-only log of the inputs that changed an Env. Opening
// a session replays the log so the Env ends up with the same bindings.
type Session struct {
	path string
	file *os.File
}

// OpenSession replays the log at path into env and opens it for appending.
func OpenSession(path string, ev *Evaluator, env *Env) (*Session, error) {
	if err := replayFile(path, ev, env); err != nil {
		return nil, fmt.Errorf("replay session: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return &Session{path: path, file: f}, nil
}

func (s *Session) Path() string {
	return s.path
}

// Eval evaluates input and appends it to the log when it changed env.
// A nil Session only evaluates.
func (s *Session) Eval(ev *Evaluator, env *Env, input string) (Value, error) {
	before := env.Version()
	v, err := ev.EvalString(env, input)
	if err != nil {
		return Value{}, err
	}
	if s != nil && env.Version() != before {
		if err := s.Append(input); err != nil {
			return v, err
		}
	}
	return v, nil
}

// Append writes one entry. Whitespace runs are collapsed so an entry never
// contains the blank-line separator.
func (s *Session) Append(entry string) error {
	entry = strings.Join(strings.Fields(entry), " ")
	if entry == "" {
		return nil
	}
	if _, err := fmt.Fprintf(s.file, "%s\n\n", entry); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// Clear truncates the log.
func (s *Session) Clear() error {
	if err := s.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate log: %w", err)
	}
	return nil
}

func (s *Session) Close() error {
	return s.file.Close()
}

func replayFile(path string, ev *Evaluator, env *Env) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	entries := splitLogEntries(string(data))
	for _, entry := range entries {
		v, err := ev.EvalString(env, entry)
		if err != nil {
			return fmt.Errorf("replaying %q: %w", entry, err)
		}
		if v.Kind == ValErr {
			log.WithFields(log.Fields{
				"entry":  entry,
				"result": v.String(),
			}).Warn("Session entry evaluated to an error")
		}
	}
	log.WithFields(log.Fields{
		"path":    path,
		"entries": len(entries),
	}).Debug("Replayed session")
	return nil
}

func splitLogEntries(data string) []string {
	raw := strings.Split(data, "\n\n")
	var entries []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			entries = append(entries, s)
		}
	}
	return entries
}
