package main

import (
	"bufio"
	"io"
	"strings"

	"github.com/NKalu/myLISP/core/history"
	"github.com/chzyer/readline"
	log "github.com/sirupsen/logrus"
)

// recallLimit bounds the inputs loaded into the prompt's recall list.
const recallLimit = 500

// lineReader yields input lines without their line terminator and returns
// io.EOF once input is exhausted.
type lineReader interface {
	Readline() (string, error)
}

// recaller receives lines that arrow-key recall should offer.
type recaller interface {
	SaveHistory(line string) error
}

// plainLines reads lines of any length from a non-interactive source.
type plainLines struct {
	r *bufio.Reader
}

func newPlainLines(r io.Reader) *plainLines {
	return &plainLines{r: bufio.NewReader(r)}
}

func (p *plainLines) Readline() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// editorLines reads from a line editor. Ctrl+C ends the session.
type editorLines struct {
	rl *readline.Instance
}

func (e editorLines) Readline() (string, error) {
	line, err := e.rl.Readline()
	if err == readline.ErrInterrupt {
		return "", io.EOF
	}
	return line, err
}

func newEditor(prompt string) (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt:                 prompt,
		HistoryLimit:           recallLimit,
		DisableAutoSaveHistory: true,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
	})
}

// loadRecall seeds rc with the most recent stored inputs.
func loadRecall(rc recaller, store *history.Store) {
	if store == nil {
		return
	}
	inputs, err := store.Inputs(recallLimit)
	if err != nil {
		log.WithError(err).Warn("Failed to load input history")
		return
	}
	for _, in := range inputs {
		if err := rc.SaveHistory(in); err != nil {
			log.WithError(err).Warn("Failed to load input history")
			return
		}
	}
	log.WithField("entries", len(inputs)).Debug("Loaded input history")
}

func scanLines(r io.Reader) ([]string, error) {
	var lines []string
	p := newPlainLines(r)
	for {
		line, err := p.Readline()
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
}
