package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	mylisp "github.com/NKalu/myLISP/core"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval [expr...]",
	Short: "Evaluate expressions and print their results",
	Long: `Evaluate each argument as a separate line against one environment.
With --file, every non-blank line of the file is evaluated in order.`,
	Example: `  mylisp eval "+ 1 2" "(def {x} 10)" "* x x"
  mylisp eval --file prelude.lisp --trace --trace-format yaml`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringP("file", "f", "", "Read expressions from a file, one per line")
	evalCmd.Flags().Bool("trace", false, "Print the reductions of each expression")
	evalCmd.Flags().String("trace-format", "text", "Trace output format: text or yaml")
}

func runEval(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	trace, _ := cmd.Flags().GetBool("trace")
	format, _ := cmd.Flags().GetString("trace-format")
	if format != "text" && format != "yaml" {
		return fmt.Errorf("unknown trace format %q", format)
	}

	lines := args
	if file != "" {
		fromFile, err := readLines(file)
		if err != nil {
			return err
		}
		lines = append(fromFile, lines...)
	}
	if len(lines) == 0 {
		return errors.New("nothing to evaluate: pass expressions or --file")
	}

	out := cmd.OutOrStdout()
	env := mylisp.NewGlobalEnv()
	var ev mylisp.Evaluator

	session, err := openSession(&ev, env)
	if err != nil {
		return err
	}
	if session != nil {
		defer session.Close()
	}

	var traces []*mylisp.Trace
	failed := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var t *mylisp.Trace
		if trace {
			t = mylisp.NewTrace(line)
			ev.Trace = t
		}
		v, err := session.Eval(&ev, env, line)
		ev.Trace = nil
		if err != nil {
			var pe *mylisp.ParseError
			if !errors.As(err, &pe) {
				return err
			}
			errorColor.Fprintln(out, pe.Error())
			failed++
			continue
		}

		if v.Kind == mylisp.ValErr {
			errorColor.Fprintln(out, v.String())
			failed++
		} else {
			fmt.Fprintln(out, v.String())
		}
		if t != nil {
			t.Finish(v)
			if format == "text" {
				t.Fprint(out)
			}
			traces = append(traces, t)
		}
	}

	if trace && format == "yaml" {
		if err := mylisp.WriteYAML(out, traces...); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d expressions failed", failed, len(lines))
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return scanLines(f)
}
