package cli

import (
	"fmt"
	"strings"

	"github.com/mobile-next/idbtap/commands"
	"github.com/spf13/cobra"
)

var swipeCmd = &cobra.Command{
	Use:   "swipe [x1,y1] [x2,y2]",
	Short: "Swipe between two points",
	Long:  `Sends a swipe from the first to the second point. Each point is given as a single string "x,y".`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		x1, y1, err := parsePoint(args[0])
		if err != nil {
			return finish(commands.NewErrorResponse(err))
		}
		x2, y2, err := parsePoint(args[1])
		if err != nil {
			return finish(commands.NewErrorResponse(err))
		}

		req := commands.SwipeRequest{
			X1:         x1,
			Y1:         y1,
			X2:         x2,
			Y2:         y2,
			DurationMs: swipeDurationMs,
		}

		return finish(commands.SwipeCommand(cmd.Context(), req))
	},
}

func parsePoint(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid coordinate format. Expected 'x,y', got '%s'", s)
	}
	return parseTapArgs(parts)
}

func init() {
	rootCmd.AddCommand(swipeCmd)

	swipeCmd.Flags().IntVar(&swipeDurationMs, "duration", 0, "Swipe duration in milliseconds (0 lets the companion choose)")
}
