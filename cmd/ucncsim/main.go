// Command ucncsim runs the motion pipeline against mocked hardware so the
// planner, interpolator and motion control packages can be driven from an
// interactive console without a real board attached.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gocnc/ucnc/block"
	"github.com/gocnc/ucnc/cnc"
	"github.com/gocnc/ucnc/console"
	"github.com/gocnc/ucnc/interpolator"
	"github.com/gocnc/ucnc/ioboard"
	"github.com/gocnc/ucnc/kinematics"
	"github.com/gocnc/ucnc/mcu"
	"github.com/gocnc/ucnc/motion"
	"github.com/gocnc/ucnc/planner"
	"github.com/gocnc/ucnc/settings"
	"github.com/gocnc/ucnc/trigger"
)

// simSink is the simulator's PulseSink: it discards direction and step
// output, since no real step/dir pins exist here; pump stands in for the
// timer ISR that calls into the interpolator.
type simSink struct {
	mcu *mcu.Mock
	itp *interpolator.Interpolator
}

func (s *simSink) SetDirBits(bits uint8) {}
func (s *simSink) Step(bits uint8)       {}
func (s *simSink) ResetSteps()           {}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg := settings.Defaults()
	kin := kinematics.NewLinear([block.AxisCount]float32{80, 80, 400})
	board := ioboard.NewMock()
	pl := planner.New(&cfg)
	ctrl := cnc.New(log)
	mcuDev := mcu.NewMock()
	sink := &simSink{mcu: mcuDev}
	itp := interpolator.New(pl, mcuDev, sink, ctrl, log)
	sink.itp = itp
	mc := motion.New(kin, board, pl, itp, &cfg, ctrl, log)
	trig := trigger.New(board, ctrl, log)

	cons := console.New(mc, ctrl, log)

	stop := make(chan struct{})
	go pump(itp, trig, stop)
	defer close(stop)

	fmt.Fprintln(os.Stdout, "ucncsim ready; type a command (status, jog, home, hold, resume, unlock, abort)")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := cons.Run(os.Stdout, scanner.Text()); err != nil {
			fmt.Fprintln(os.Stdout, err)
		}
	}
}

// pump stands in for the real device's timer ISR and pin-change interrupt:
// it repeatedly advances the interpolator and polls the trigger dispatcher
// so a line typed at the console actually runs to completion.
func pump(itp *interpolator.Interpolator, trig *trigger.Trigger, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			itp.Run()
			for i := 0; i < 50; i++ {
				itp.StepPulseISR()
			}
			trig.DispatchISR()
		}
	}
}
