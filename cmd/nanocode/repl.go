package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/internal/sysinfo"
	"github.com/hupe1980/nanocode/model"
)

// session is the part of *nanocode.Agent the REPL drives.
type session interface {
	Run(ctx context.Context, input string) (core.Content, error)
	Reset()
	ModelInfo() model.Info
	SystemInfo() sysinfo.Info
}

type repl struct {
	in      io.Reader
	p       *printer
	session session
}

func newREPL(in io.Reader, p *printer, s session) *repl {
	return &repl{in: in, p: p, session: s}
}

// Run reads requests until /q, exit, end of input or cancellation.
func (r *repl) Run(ctx context.Context) error {
	info := r.session.ModelInfo()
	cwd := r.session.SystemInfo().CWD

	r.p.printf("%snanocode%s | %s%s (%s) | %s%s\n\n", bold, reset, dim, info.Name, info.Provider.DisplayName(), cwd, reset)

	lines := make(chan string)
	done := make(chan struct{})

	defer close(done)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	for {
		r.p.printf("%s\n%s%s❯%s ", separator(), bold, blue, reset)

		var (
			line string
			ok   bool
		)

		select {
		case <-ctx.Done():
			r.p.printf("\n")
			return nil
		case line, ok = <-lines:
		}

		if !ok {
			r.p.printf("\n")
			return nil
		}

		r.p.printf("%s\n", separator())

		input := strings.TrimSpace(line)

		switch input {
		case "":
			continue
		case "/q", "exit":
			return nil
		case "/c":
			r.session.Reset()
			r.p.printf("%s⏺ Cleared conversation%s\n", green, reset)

			continue
		case "/i":
			r.p.printf("%s⏺ System Info:%s\n  %s\n", cyan, reset, r.session.SystemInfo())

			continue
		}

		if _, err := r.session.Run(ctx, input); err != nil {
			if ctx.Err() != nil {
				r.p.printf("\n%s⏺ Interrupted%s\n", yellow, reset)
				return nil
			}

			r.p.printf("%s⏺ Error: %v%s\n", red, err, reset)

			continue
		}

		r.p.printf("\n")
	}
}
