package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

func (s *session) repl() error {
	prompt := fmt.Sprintf("%s> ", s.client.Prefix(s.guild))
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), ".breadbot_history"),
		HistoryLimit:    200,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(s.out, "readline unavailable (%v), using plain input\n", err)
		return s.loop(os.Stdin)
	}
	defer rl.Close()

	fmt.Fprintln(s.out, "Type messages as if in a channel. exit or Ctrl-D quits.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !s.handle(line) {
			return nil
		}
		rl.SetPrompt(fmt.Sprintf("%s> ", s.client.Prefix(s.guild)))
	}
}

// loop reads lines from r until EOF or exit.
func (s *session) loop(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if !s.handle(sc.Text()) {
			return nil
		}
	}
	return sc.Err()
}

// handle dispatches one line and reports whether to keep reading.
func (s *session) handle(line string) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return true
	case "exit", "quit":
		return false
	}
	s.dispatch(line)
	return true
}
