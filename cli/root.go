package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mobile-next/idbtap/commands"
	"github.com/mobile-next/idbtap/config"
	"github.com/mobile-next/idbtap/utils"
	"github.com/spf13/cobra"
)

const version = "dev"

// output receives JSON responses.
var output io.Writer = os.Stdout

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "idbtap [x y]",
	Short: "Tap calibration for iOS simulators through idb_companion",
	Long: `Sends touch events to an iOS simulator through idb_companion.

Without arguments, taps the calibration targets in order.
With --auto, also captures a frame before, between and after the taps.
With two numbers, performs a single tap at (x, y); --single-stream lets the
companion time the press in one call.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	RunE:              runRoot,
}

// GetVersion returns the build version.
func GetVersion() string {
	return version
}

func loadConfig(cmd *cobra.Command, args []string) error {
	utils.SetVerbose(verbose)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	err = cfg.Apply(config.Overrides{
		Backend:   backend,
		Address:   companionAddr,
		UDID:      udid,
		Spawn:     spawn,
		OutputDir: outputDir,
		YAxis:     yAxis,
		Prefix:    prefix,
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	commands.SetConfig(cfg)
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 0:
		if singleStream {
			_ = cmd.Usage()
			return fmt.Errorf("--single-stream only applies to a single tap at <x> <y>")
		}
		return runCalibration(cmd.Context(), autoCapture)
	case 2:
		if autoCapture {
			_ = cmd.Usage()
			return fmt.Errorf("--auto cannot be combined with a single tap at <x> <y>")
		}
		x, y, err := parseTapArgs(args)
		if err != nil {
			_ = cmd.Usage()
			return err
		}
		return runTap(cmd.Context(), x, y)
	default:
		_ = cmd.Usage()
		return fmt.Errorf("expected no arguments or <x> <y>, got %d arguments", len(args))
	}
}

func parseTapArgs(args []string) (float64, float64, error) {
	x, errX := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
	if errX != nil || errY != nil {
		return 0, 0, fmt.Errorf("invalid coordinate values. x and y must be numbers. Got x='%s', y='%s'", args[0], args[1])
	}
	return x, y, nil
}

func runTap(ctx context.Context, x, y float64) error {
	response := commands.TapCommand(ctx, commands.TapRequest{X: x, Y: y, SingleStream: singleStream})
	return finish(response)
}

func runCalibration(ctx context.Context, capture bool) error {
	response := commands.CalibrateCommand(ctx, commands.CalibrateRequest{
		Capture:  capture,
		Observer: newProgressPrinter(os.Stderr),
	})
	return finish(response)
}

// finish prints the response and turns an error response into an error.
func finish(response *commands.CommandResponse) error {
	printJson(response)
	if response.Status == "error" {
		return fmt.Errorf("%s", response.Error)
	}
	return nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&configPath, "config", "", fmt.Sprintf("config file (default $%s or ~/%s)", config.EnvPath, config.FileName))
	flags.StringVar(&backend, "backend", "", "companion backend: grpc or direct")
	flags.StringVar(&companionAddr, "companion", "", "idb_companion gRPC address (host:port)")
	flags.StringVar(&udid, "udid", "", "target simulator udid")
	flags.BoolVar(&spawn, "spawn", false, "start an idb_companion for --udid and stop it on exit")
	flags.StringVar(&outputDir, "output-dir", "", "directory for captured frames")
	flags.StringVar(&yAxis, "y-axis", "", "target y convention: raw or inverted")
	flags.StringVar(&prefix, "prefix", "", "file name prefix for captured frames")

	rootCmd.Flags().BoolVar(&autoCapture, "auto", false, "capture a frame before, between and after the taps")
	rootCmd.Flags().BoolVar(&singleStream, "single-stream", false, "send a single tap as one companion call")
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		utils.Logger().Fatal(err)
	}
	fmt.Fprintln(output, string(jsonData))
}
