package display

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"huecam/tracking"
)

// ErrBadCommand is returned for console lines that do not parse
var ErrBadCommand = errors.New("bad command")

// CommandKind is a console verb
type CommandKind int

const (
	CommandPick CommandKind = iota
	CommandToggle
	CommandQuit
	CommandHelp
)

// Command is one parsed console line
type Command struct {
	Kind CommandKind
	X, Y int
}

const consoleHelp = "commands: pick X Y (p), toggle (t), quit (q), help (h)"

// ParseCommand parses "pick X Y", "toggle", "quit" and their one-letter forms
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty line", ErrBadCommand)
	}

	switch fields[0] {
	case "pick", "p":
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("%w: usage: pick X Y", ErrBadCommand)
		}
		x, errX := strconv.Atoi(fields[1])
		y, errY := strconv.Atoi(fields[2])
		if errX != nil || errY != nil {
			return Command{}, fmt.Errorf("%w: pick coordinates must be integers", ErrBadCommand)
		}
		return Command{Kind: CommandPick, X: x, Y: y}, nil
	case "toggle", "t":
		return Command{Kind: CommandToggle}, nil
	case "quit", "q", "exit":
		return Command{Kind: CommandQuit}, nil
	case "help", "h", "?":
		return Command{Kind: CommandHelp}, nil
	default:
		return Command{}, fmt.Errorf("%w: unknown command %q", ErrBadCommand, fields[0])
	}
}

// Console reads commands line by line and applies them to the pipeline
type Console struct {
	in   *bufio.Scanner
	out  io.Writer
	ctrl Controls
}

// NewConsole creates a console reading from in and replying to out
func NewConsole(in io.Reader, out io.Writer, ctrl Controls) *Console {
	return &Console{
		in:   bufio.NewScanner(in),
		out:  out,
		ctrl: ctrl,
	}
}

// Run processes commands until quit, end of input or ctx is done. A read in
// progress is not interrupted by ctx; Run returns after the next line.
// quit is called when the user asks to stop.
func (c *Console) Run(ctx context.Context, quit func()) error {
	fmt.Fprintln(c.out, consoleHelp)
	for c.in.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			fmt.Fprintln(c.out, err)
			continue
		}
		if cmd.Kind == CommandQuit {
			debugMsg("CONSOLE", "Quit requested")
			if quit != nil {
				quit()
			}
			return nil
		}
		c.apply(cmd)
	}
	return c.in.Err()
}

func (c *Console) apply(cmd Command) {
	switch cmd.Kind {
	case CommandPick:
		err := c.ctrl.PickPixel(cmd.X, cmd.Y)
		switch {
		case err == nil:
			fmt.Fprintf(c.out, "picked (%d,%d)\n", cmd.X, cmd.Y)
		case tracking.IsIgnorablePick(err):
			fmt.Fprintf(c.out, "ignored: %v\n", err)
		default:
			fmt.Fprintf(c.out, "pick failed: %v\n", err)
		}
	case CommandToggle:
		fmt.Fprintf(c.out, "mode %s\n", c.ctrl.ToggleTracking())
	case CommandHelp:
		fmt.Fprintln(c.out, consoleHelp)
	}
}
