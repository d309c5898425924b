package cli

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/mobile-next/idbtap/commands"
	"github.com/spf13/cobra"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture one frame from the simulator",
	Long:  `Captures one frame and saves it unchanged, in the format the companion returned (PNG over gRPC, raw pixels with shared memory).`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.ScreenshotRequest{
			OutputPath:  screenshotOutputPath,
			Format:      screenshotFormat,
			JpegQuality: screenshotQuality,
		}

		response := commands.ScreenshotCommand(cmd.Context(), req)

		// Handle stdout output for binary data
		if screenshotOutputPath == "-" && response.Status == "ok" {
			if screenshotResp, ok := response.Data.(commands.ScreenshotResponse); ok && screenshotResp.Data != "" {
				imageBytes, err := base64.StdEncoding.DecodeString(screenshotResp.Data)
				if err != nil {
					return fmt.Errorf("failed to decode image data: %v", err)
				}
				_, err = os.Stdout.Write(imageBytes)
				if err != nil {
					return fmt.Errorf("failed to write to stdout: %v", err)
				}
				return nil
			}
		}

		return finish(response)
	},
}

func init() {
	rootCmd.AddCommand(screenshotCmd)

	screenshotCmd.Flags().StringVarP(&screenshotOutputPath, "output", "o", "", "Output file path for screenshot (e.g., screen.png, or '-' for stdout)")
	screenshotCmd.Flags().StringVarP(&screenshotFormat, "format", "f", "", "Convert to 'png' or 'jpeg' (default: keep the companion's format)")
	screenshotCmd.Flags().IntVarP(&screenshotQuality, "quality", "q", 0, "JPEG quality (1-100)")
}
