// Package console implements a small operator debug console: a
// line-oriented command dispatcher for manual control during bring-up,
// not a G-code interpreter (spec.md §1 places G-code parsing out of
// scope). It tokenizes with a shell-lexer so quoted arguments behave the
// way an operator typing at a terminal expects, the same pragmatic reach
// for an existing lexer rather than hand-rolling one that comboat.go takes
// for AT-command framing.
package console

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/google/shlex"

	"github.com/gocnc/ucnc/block"
	"github.com/gocnc/ucnc/cnc"
	"github.com/gocnc/ucnc/execstate"
	"github.com/gocnc/ucnc/motion"
)

// Handler executes one parsed command and writes its response to w.
type Handler func(w io.Writer, args []string) error

// Console dispatches tokenized command lines to registered Handlers.
type Console struct {
	handlers map[string]Handler
	log      *slog.Logger
}

// New builds a Console with the standard command set wired to mc/ctrl.
func New(mc *motion.Control, ctrl *cnc.Controller, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	c := &Console{handlers: map[string]Handler{}, log: log}
	c.Register("status", statusHandler(mc, ctrl))
	c.Register("unlock", unlockHandler(ctrl))
	c.Register("hold", holdHandler(ctrl))
	c.Register("resume", resumeHandler(ctrl))
	c.Register("abort", abortHandler(ctrl))
	c.Register("home", homeHandler(mc))
	c.Register("jog", jogHandler(mc, ctrl))
	return c
}

// Register installs or overrides a command handler by name.
func (c *Console) Register(name string, h Handler) {
	c.handlers[name] = h
}

// Run tokenizes and dispatches a single command line.
func (c *Console) Run(w io.Writer, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	h, ok := c.handlers[tokens[0]]
	if !ok {
		return fmt.Errorf("console: unknown command %q", tokens[0])
	}
	return h(w, tokens[1:])
}

func statusHandler(mc *motion.Control, ctrl *cnc.Controller) Handler {
	return func(w io.Writer, args []string) error {
		pos := mc.GetPosition()
		_, err := fmt.Fprintf(w, "pos=%.3f,%.3f,%.3f state=%s alarm=%s\n",
			pos[0], pos[1], pos[2], ctrl.State.Get(), ctrl.Alarm)
		return err
	}
}

func unlockHandler(ctrl *cnc.Controller) Handler {
	return func(w io.Writer, args []string) error {
		ctrl.Unlock()
		_, err := fmt.Fprintln(w, "ok")
		return err
	}
}

func holdHandler(ctrl *cnc.Controller) Handler {
	return func(w io.Writer, args []string) error {
		ctrl.SetExecState(execstate.Hold)
		_, err := fmt.Fprintln(w, "ok")
		return err
	}
}

func resumeHandler(ctrl *cnc.Controller) Handler {
	return func(w io.Writer, args []string) error {
		ctrl.ClearExecState(execstate.Hold)
		_, err := fmt.Fprintln(w, "ok")
		return err
	}
}

func abortHandler(ctrl *cnc.Controller) Handler {
	return func(w io.Writer, args []string) error {
		ctrl.SetExecState(execstate.Abort)
		ctrl.Stop()
		_, err := fmt.Fprintln(w, "ok")
		return err
	}
}

func homeHandler(mc *motion.Control) Handler {
	return func(w io.Writer, args []string) error {
		if len(args) < 1 {
			return fmt.Errorf("usage: home <axis>")
		}
		axis, err := strconv.Atoi(args[0])
		if err != nil || axis < 0 || axis >= block.AxisCount {
			return fmt.Errorf("invalid axis %q", args[0])
		}
		alarm := mc.HomeAxis(uint8(axis), 1<<uint(axis))
		_, err = fmt.Fprintf(w, "%s\n", alarm)
		return err
	}
}

func jogHandler(mc *motion.Control, ctrl *cnc.Controller) Handler {
	return func(w io.Writer, args []string) error {
		if len(args) < 3 {
			return fmt.Errorf("usage: jog <axis> <distance_mm> <feed_mm_min>")
		}
		axis, err := strconv.Atoi(args[0])
		if err != nil || axis < 0 || axis >= block.AxisCount {
			return fmt.Errorf("invalid axis %q", args[0])
		}
		dist, err := strconv.ParseFloat(args[1], 32)
		if err != nil {
			return fmt.Errorf("invalid distance %q", args[1])
		}
		feed, err := strconv.ParseFloat(args[2], 32)
		if err != nil {
			return fmt.Errorf("invalid feed %q", args[2])
		}

		ctrl.SetExecState(execstate.Jog)
		defer ctrl.ClearExecState(execstate.Jog)

		target := mc.GetPosition()
		target[axis] += float32(dist)

		var data block.Block
		data.Feed = float32(feed)
		data.MotionMode = block.Feed

		code := mc.Line(target, data)
		_, werr := fmt.Fprintf(w, "%s\n", code)
		if werr != nil {
			return werr
		}
		return nil
	}
}
