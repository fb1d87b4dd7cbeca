// Command resview loads resources through the asset cache and shows how
// they are shared and collected.
//
//	resview --config engine.jsonc --load file://materials/stone.mat --frames 2
//	resview --config engine.jsonc --console
//	resview --config engine.jsonc -i
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/wippyai/assetcache/config"
	"github.com/wippyai/assetcache/engine"
)

type options struct {
	config      string
	report      string
	logLevel    string
	load        []string
	frames      int
	console     bool
	interactive bool
	hold        bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, isTerminal))
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func parseFlags(errOut io.Writer, args []string) (options, bool) {
	var opts options

	fs := flag.NewFlagSet("resview", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&opts.config, "config", "", "engine config file (JSONC)")
	fs.StringArrayVar(&opts.load, "load", nil, "resource identifier to load and hold (repeatable)")
	fs.IntVar(&opts.frames, "frames", 1, "frames to run after loading")
	fs.StringVar(&opts.report, "report", "", "write a JSON usage report to this path")
	fs.StringVar(&opts.logLevel, "log-level", "", "override log.level")
	fs.BoolVar(&opts.console, "console", false, "start the command console")
	fs.BoolVarP(&opts.interactive, "interactive", "i", false, "start the live usage tracker")
	fs.BoolVar(&opts.hold, "hold", false, "keep loaded handles through shutdown (reported as leaks)")

	if err := fs.Parse(args); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(errOut, "error:", err)
		}
		return options{}, false
	}
	if opts.frames < 0 {
		fmt.Fprintln(errOut, "error: --frames must not be negative")
		return options{}, false
	}
	if opts.console && opts.interactive {
		fmt.Fprintln(errOut, "error: --console and -i are mutually exclusive")
		return options{}, false
	}
	return opts, true
}

func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.config != "" {
		var err error
		if cfg, err = config.Load(opts.config); err != nil {
			return config.Config{}, err
		}
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func run(args []string, out, errOut io.Writer, tty func() bool) int {
	opts, ok := parseFlags(errOut, args)
	if !ok {
		return 2
	}
	if opts.interactive && !tty() {
		fmt.Fprintln(errOut, "error: -i needs a terminal")
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	e, err := engine.New(cfg)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	ctx := context.Background()
	code := runSession(ctx, e, opts, out, errOut)
	if err := e.Shutdown(ctx); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return code
}

// runSession runs everything between Init and Shutdown.
func runSession(ctx context.Context, e *engine.Context, opts options, out, errOut io.Writer) int {
	if err := e.Init(ctx); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	s := newSession(e)
	failed := 0
	for _, text := range opts.load {
		h, err := s.get(text, "")
		if err != nil || !h.Valid() {
			failed++
			fmt.Fprintf(errOut, "error: load %s: %v\n", text, err)
		}
	}

	switch {
	case opts.console:
		if err := newConsole(s, out).run(); err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
	case opts.interactive:
		if err := runTracker(s); err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
	default:
		for i := 0; i < opts.frames; i++ {
			e.EndFrame()
		}
		fmt.Fprintln(out, renderUsage(e.Cache().Usage()))
	}

	if opts.report != "" {
		if err := writeReport(opts.report, buildReport(e, time.Now())); err != nil {
			fmt.Fprintln(errOut, "error: write report:", err)
			return 1
		}
	}

	if !opts.hold {
		s.releaseAll()
	}
	if failed > 0 {
		return 1
	}
	return 0
}
