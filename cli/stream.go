package cli

import (
	"fmt"
	"os"

	"github.com/mobile-next/idbtap/commands"
	"github.com/mobile-next/idbtap/types"
	"github.com/spf13/cobra"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Save frames at a fixed rate",
	Long:  `Saves frames as <prefix>_stream_<n> into the output directory at up to --fps frames per second. With --duration 0 it runs until interrupted.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.StreamRequest{
			FPS:        streamFPS,
			DurationMs: streamDurationMs,
			OnFrame: func(path string, frame *types.Frame) {
				if verbose {
					fmt.Fprintf(os.Stderr, "saved %s (%d bytes)\n", path, len(frame.Data))
				}
			},
		}

		return finish(commands.StreamCommand(cmd.Context(), req))
	},
}

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().IntVar(&streamFPS, "fps", commands.DefaultStreamFPS, "Frames per second")
	streamCmd.Flags().IntVar(&streamDurationMs, "duration", 5000, "Stream duration in milliseconds, 0 until interrupted")
}
