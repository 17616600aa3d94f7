package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timelineio/tlplay/internal/bootstrap"
)

var infoCmd = &cobra.Command{
	Use:   "info <timeline.otio>",
	Short: "Print a timeline's duration and the format of its first video/audio clip",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		eng, err := bootstrap.Load(args[0], appConfig, appLogger)
		if err != nil {
			return err
		}
		defer eng.IO.Close()

		duration := eng.Timeline.GetDuration()
		fmt.Printf("duration:    %s (rate %.3g)\n", duration, duration.Rate)
		fmt.Printf("start time:  %s\n", eng.Timeline.GetGlobalStartTime())

		av := eng.Timeline.GetAVInfo(context.Background())
		if len(av.Video) == 0 {
			fmt.Println("video:       (none)")
		}
		for i, v := range av.Video {
			fmt.Printf("video[%d]:    %dx%d %s\n", i, v.Width, v.Height, v.PixelType)
		}
		if av.Audio == nil {
			fmt.Println("audio:       (none)")
		} else {
			fmt.Printf("audio:       %d ch, %d Hz, %s\n", av.Audio.Channels, av.Audio.SampleRate, av.Audio.DataType)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
