package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/wippyai/assetcache/asset"
)

var consoleCommands = []string{"get", "release", "flush", "usage", "held", "providers", "help", "quit"}

// console is the line-oriented command loop behind --console.
type console struct {
	s     *session
	out   io.Writer
	liner *liner.State
}

func newConsole(s *session, out io.Writer) *console {
	return &console{s: s, out: out}
}

func consoleHistory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".resview_history")
}

func (c *console) run() error {
	c.liner = liner.NewLiner()
	defer c.liner.Close()

	c.liner.SetCtrlCAborts(true)
	c.liner.SetCompleter(c.complete)

	if f, err := os.Open(consoleHistory()); err == nil {
		c.liner.ReadHistory(f)
		f.Close()
	}
	defer c.saveHistory()

	fmt.Fprintf(c.out, "resview session %s. Type 'help' for commands.\n", c.s.engine.Session())
	for {
		line, err := c.liner.Prompt("resview> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.liner.AppendHistory(line)
		if c.exec(line) {
			return nil
		}
	}
}

func (c *console) saveHistory() {
	path := consoleHistory()
	if path == "" {
		return
	}
	if err := writeHistory(path, c.liner); err != nil {
		fmt.Fprintln(c.out, errorStyle.Render("error: save history: "+err.Error()))
	}
}

func writeHistory(path string, h interface {
	WriteHistory(io.Writer) (int, error)
}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := h.WriteHistory(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *console) complete(line string) []string {
	var out []string
	for _, cmd := range consoleCommands {
		if strings.HasPrefix(cmd, strings.ToLower(line)) {
			out = append(out, cmd)
		}
	}
	sort.Strings(out)
	return out
}

// exec runs one command line and reports whether the console should exit.
func (c *console) exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		c.help()
	case "get":
		c.get(args)
	case "release":
		c.release(args)
	case "flush":
		fmt.Fprintf(c.out, "erased %d\n", c.s.engine.EndFrame())
	case "usage":
		fmt.Fprintln(c.out, renderUsage(c.s.engine.Cache().Usage()))
	case "held":
		for _, id := range c.s.heldIDs() {
			fmt.Fprintln(c.out, id)
		}
	case "providers":
		for _, m := range c.s.mounts() {
			fmt.Fprintf(c.out, "%s: %s\n", m.name, strings.Join(m.sources, " < "))
		}
	default:
		fmt.Fprintf(c.out, "unknown command %q (type 'help')\n", cmd)
	}
	return false
}

func (c *console) get(args []string) {
	if len(args) == 0 || len(args) > 2 {
		fmt.Fprintln(c.out, "usage: get <provider://path> [kind]")
		return
	}
	kind := ""
	if len(args) == 2 {
		kind = args[1]
	}
	h, err := c.s.get(args[0], kind)
	if err != nil {
		fmt.Fprintln(c.out, errorStyle.Render("error: "+err.Error()))
		return
	}
	state := "ok"
	if u := c.usageOf(h); u != "" {
		state = u
	}
	fmt.Fprintf(c.out, "%s %s\n", h.ID(), state)
}

func (c *console) usageOf(h asset.Any) string {
	for _, u := range c.s.engine.Cache().Usage() {
		if u.ID == h.ID() && !u.Pending {
			return fmt.Sprintf("%s holders=%d %s", strings.TrimPrefix(u.Type, "*"), u.Holders, usageState(u))
		}
	}
	return ""
}

func (c *console) release(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: release <provider://path>")
		return
	}
	left, err := c.s.release(args[0])
	if err != nil {
		fmt.Fprintln(c.out, errorStyle.Render("error: "+err.Error()))
		return
	}
	fmt.Fprintf(c.out, "released, %d still held here; erased at next flush if unused\n", left)
}

func (c *console) help() {
	fmt.Fprintln(c.out, `commands:
  get <id> [kind]   load and hold a resource (kinds: `+strings.Join(asset.Kinds(), ", ")+`)
  release <id>      release one held handle
  flush             end the frame and erase released resources
  usage             show every cache entry
  held              list identifiers held by this console
  providers         show provider chains, earliest first
  quit              exit`)
}
