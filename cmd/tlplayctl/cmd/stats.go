package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"

	"github.com/timelineio/tlplay/internal/bootstrap"
	"github.com/timelineio/tlplay/pkg/format"
)

var statsCmd = &cobra.Command{
	Use:   "stats [timeline.otio]",
	Short: "Print process resource usage and, given a timeline, I/O Manager occupancy",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		fmt.Printf("os/arch:        %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Printf("goroutines:     %d\n", runtime.NumGoroutine())

		if cores, err := cpu.CountsWithContext(ctx, true); err == nil {
			fmt.Printf("cpu cores:      %d\n", cores)
		}

		proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
		if err != nil {
			return fmt.Errorf("reading process stats: %w", err)
		}
		if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
			fmt.Printf("process cpu:    %s\n", format.Percentage(pct, 1))
		}
		if mem, err := proc.MemoryInfoWithContext(ctx); err == nil {
			fmt.Printf("process rss:    %s\n", format.Bytes(int64(mem.RSS)))
		}

		if len(args) == 1 {
			eng, err := bootstrap.Load(args[0], appConfig, appLogger)
			if err != nil {
				return err
			}
			defer eng.IO.Close()
			s := eng.IO.Stats()
			fmt.Printf("open readers:   %d/%d\n", s.OpenReaders, s.MaxOpenReaders)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
