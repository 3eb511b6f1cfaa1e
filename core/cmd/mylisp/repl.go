package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	mylisp "github.com/NKalu/myLISP/core"
	"github.com/NKalu/myLISP/core/history"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive prompt",
	Args:  cobra.NoArgs,
	RunE:  runRepl,
}

func init() {
	addReplFlags(replCmd)
}

func addReplFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("trace", false, "Print every reduction step after each result")
	cmd.Flags().Bool("no-history", false, "Do not record inputs in the history database")
}

var (
	resultColor = color.New(color.FgGreen)
	errorColor  = color.New(color.FgRed)
	traceColor  = color.New(color.Faint)
)

// repl reads one line at a time, evaluates it against a single Env and
// prints the result before reading the next line.
type repl struct {
	ev          mylisp.Evaluator
	env         *mylisp.Env
	session     *mylisp.Session
	history     *history.Store
	recall      recaller
	out         io.Writer
	prompt      string
	trace       bool
	interactive bool
}

func runRepl(cmd *cobra.Command, args []string) error {
	env := mylisp.NewGlobalEnv()
	r := &repl{
		env:         env,
		out:         cmd.OutOrStdout(),
		prompt:      viper.GetString("prompt"),
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
	r.trace, _ = cmd.Flags().GetBool("trace")

	session, err := openSession(&r.ev, env)
	if err != nil {
		return err
	}
	if session != nil {
		defer session.Close()
	}
	r.session = session

	noHistory, _ := cmd.Flags().GetBool("no-history")
	if viper.GetBool("history.enabled") && !noHistory {
		store, err := openHistory()
		if err != nil {
			// History is a convenience; the prompt still works without it.
			log.WithError(err).Warn("History disabled")
		} else {
			defer store.Close()
			r.history = store
		}
	}

	if !r.interactive {
		return r.run(newPlainLines(cmd.InOrStdin()))
	}

	rl, err := newEditor(r.prompt)
	if err != nil {
		return fmt.Errorf("start line editor: %w", err)
	}
	defer rl.Close()
	loadRecall(rl, r.history)
	r.recall = rl
	return r.run(editorLines{rl: rl})
}

func (r *repl) run(lines lineReader) error {
	if r.interactive {
		fmt.Fprintln(r.out, "NnamLISP Version 0.0.0.5")
		fmt.Fprintln(r.out, "Press CTRL+C to Exit")
		fmt.Fprintln(r.out)
	}

	for {
		line, err := lines.Readline()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if r.recall != nil {
			if err := r.recall.SaveHistory(line); err != nil {
				log.WithError(err).Debug("Failed to add line to recall")
			}
		}
		r.evalLine(line)
	}
}

func (r *repl) evalLine(line string) {
	var trace *mylisp.Trace
	if r.trace {
		trace = mylisp.NewTrace(line)
		r.ev.Trace = trace
	}
	v, err := r.session.Eval(&r.ev, r.env, line)
	r.ev.Trace = nil

	var output string
	isErr := false
	if err != nil {
		var pe *mylisp.ParseError
		if !errors.As(err, &pe) {
			log.WithError(err).Error("Session append failed")
		} else {
			output = pe.Error()
			isErr = true
			errorColor.Fprintln(r.out, output)
		}
	}
	if output == "" {
		output = v.String()
		isErr = v.Kind == mylisp.ValErr
		if isErr {
			errorColor.Fprintln(r.out, output)
		} else {
			resultColor.Fprintln(r.out, output)
		}
		if trace != nil {
			trace.Finish(v)
			var b strings.Builder
			trace.Fprint(&b)
			traceColor.Fprint(r.out, b.String())
		}
	}

	if r.history != nil {
		if _, err := r.history.Add(line, output, isErr); err != nil {
			log.WithError(err).Warn("Failed to record history")
		}
	}
}

func openSession(ev *mylisp.Evaluator, env *mylisp.Env) (*mylisp.Session, error) {
	path := viper.GetString("session")
	if path == "" {
		return nil, nil
	}
	session, err := mylisp.OpenSession(path, ev, env)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"path":    path,
		"symbols": env.Len(),
	}).Debug("Session opened")
	return session, nil
}

func openHistory() (*history.Store, error) {
	path := viper.GetString("history.path")
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	return history.Open(path)
}
