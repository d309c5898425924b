package cli

import (
	"github.com/mobile-next/idbtap/commands"
	"github.com/spf13/cobra"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Manage applications on the simulator",
	Long:  `List, launch, terminate and install applications on the target simulator.`,
}

var appsLaunchCmd = &cobra.Command{
	Use:   "launch [bundle_id]",
	Short: "Launch an app",
	Long:  `Launches an app using its bundle ID (e.g., "com.example.app"), bringing it to the foreground if already running.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.AppRequest{
			BundleID: args[0],
		}
		return finish(commands.LaunchAppCommand(cmd.Context(), req))
	},
}

var appsTerminateCmd = &cobra.Command{
	Use:   "terminate [bundle_id]",
	Short: "Terminate an app",
	Long:  `Terminates an app using its bundle ID (e.g., "com.example.app").`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.AppRequest{
			BundleID: args[0],
		}
		return finish(commands.TerminateAppCommand(cmd.Context(), req))
	},
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed apps",
	Long:  `Lists all applications installed on the target.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return finish(commands.ListAppsCommand(cmd.Context(), commands.ListAppsRequest{}))
	},
}

var appsInstallCmd = &cobra.Command{
	Use:   "install [path.app]",
	Short: "Install an app bundle",
	Long:  `Installs an .app bundle. Only the direct backend can install; the gRPC backend reports NotSupported.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.InstallRequest{
			Path: args[0],
		}
		return finish(commands.InstallAppCommand(cmd.Context(), req))
	},
}

func init() {
	rootCmd.AddCommand(appsCmd)

	appsCmd.AddCommand(appsLaunchCmd)
	appsCmd.AddCommand(appsTerminateCmd)
	appsCmd.AddCommand(appsListCmd)
	appsCmd.AddCommand(appsInstallCmd)
}
