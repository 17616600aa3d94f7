package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/timelineio/tlplay/internal/bootstrap"
	"github.com/timelineio/tlplay/internal/playback"
)

var (
	playReverse bool
	playLoop    string
	playSpeed   float64
	playFPS     float64
	playMax     time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play <timeline.otio>",
	Short: "Drive a timeline's Playback Controller from start to end, printing current_time",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		eng, err := bootstrap.Load(args[0], appConfig, appLogger)
		if err != nil {
			return err
		}
		defer eng.IO.Close()

		switch playLoop {
		case "loop":
			eng.Controller.SetLoop(playback.Loop)
		case "once":
			eng.Controller.SetLoop(playback.Once)
		case "pingpong", "ping-pong":
			eng.Controller.SetLoop(playback.PingPong)
		default:
			return fmt.Errorf("unknown --loop mode %q (want loop, once, or pingpong)", playLoop)
		}
		eng.Controller.SetSpeed(playSpeed)

		dir := playback.Forward
		if playReverse {
			dir = playback.Reverse
		}
		eng.Controller.Play(dir)

		stop := make(chan struct{})
		done := make(chan struct{})
		frameInterval := time.Duration(float64(time.Second) / playFPS)

		go func() {
			defer close(done)
			bootstrap.RunClock(eng.Controller, frameInterval, stop)
		}()

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		var deadline <-chan time.Time
		if playMax > 0 {
			deadline = time.After(playMax)
		}
	pollLoop:
		for {
			select {
			case <-ticker.C:
				fmt.Printf("\r%-8s %s", eng.Controller.StateValue(), eng.Controller.CurrentTimeValue())
				if eng.Controller.StateValue() == playback.Stop {
					break pollLoop
				}
			case <-deadline:
				eng.Controller.Stop()
				break pollLoop
			}
		}
		close(stop)
		<-done
		fmt.Println()
		return nil
	},
}

func init() {
	playCmd.Flags().BoolVar(&playReverse, "reverse", false, "start playback in reverse instead of forward")
	playCmd.Flags().StringVar(&playLoop, "loop", "once", "loop mode: loop, once, or pingpong")
	playCmd.Flags().Float64Var(&playSpeed, "speed", 1, "playback speed multiplier")
	playCmd.Flags().Float64Var(&playFPS, "tick-rate", 60, "clock ticks per second driving read-ahead")
	playCmd.Flags().DurationVar(&playMax, "max-duration", 0, "stop after this long regardless of loop mode (0 = run until Once mode stops at a boundary)")
	rootCmd.AddCommand(playCmd)
}
