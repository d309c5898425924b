package cli

import (
	"fmt"

	"github.com/mobile-next/idbtap/commands"
	"github.com/mobile-next/idbtap/daemon"
	"github.com/mobile-next/idbtap/server"
	"github.com/mobile-next/idbtap/utils"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Server management commands",
	Long:  `Commands for managing the idbtap JSON-RPC server.`,
}

// listenAddress picks --listen, then the config file's [server] listen.
func listenAddress(cmd *cobra.Command) string {
	// GetString cannot fail for defined flags
	addr, _ := cmd.Flags().GetString("listen")
	if addr == "" {
		addr = commands.CurrentConfig().Server.Listen
	}
	return addr
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the idbtap server",
	Long:  `Starts the JSON-RPC server (HTTP /rpc and WebSocket /ws). When a token is stored with 'server token set', every request must present it as a bearer token.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr := listenAddress(cmd)

		// GetBool cannot fail for defined flags
		enableCORS, _ := cmd.Flags().GetBool("cors")
		enableCORS = enableCORS || commands.CurrentConfig().Server.CORS
		isDaemon, _ := cmd.Flags().GetBool("daemon")

		normalized, err := server.NormalizeAddr(listenAddr)
		if err != nil {
			return err
		}
		if available, err := utils.IsAddressAvailable(normalized); err == nil && !available {
			return fmt.Errorf("address %s is already in use", listenAddr)
		}

		if isDaemon && !daemon.IsChild() {
			_, err := daemon.Daemonize()
			if err != nil {
				return fmt.Errorf("failed to start daemon: %w", err)
			}

			fmt.Printf("Server daemon spawned, attempting to listen on %s\n", listenAddr)
			return nil
		}

		token, err := server.LoadToken()
		if err != nil {
			return err
		}
		if token == "" {
			utils.Warn("No server token set, requests are not authenticated")
		}

		server.Version = GetVersion()
		return server.StartServer(cmd.Context(), listenAddr, enableCORS, token)
	},
}

var serverKillCmd = &cobra.Command{
	Use:   "kill",
	Short: "Stop the daemonized idbtap server",
	Long:  `Connects to the server and sends a shutdown command via JSON-RPC.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := server.LoadToken()
		if err != nil {
			return err
		}

		err = daemon.KillServer(listenAddress(cmd), token)
		if err != nil {
			return err
		}

		fmt.Printf("Server shutdown command sent successfully\n")
		return nil
	},
}

var serverTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the server bearer token",
	Long:  `Stores or removes the server bearer token in the system keyring.`,
}

var serverTokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store a bearer token, generating one when omitted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := ""
		if len(args) == 1 {
			value = args[0]
		}

		token, err := server.SaveToken(value)
		if err != nil {
			return err
		}
		return finish(commands.NewSuccessResponse(map[string]interface{}{
			"token": token,
		}))
	},
}

var serverTokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored bearer token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := server.ClearToken(); err != nil {
			return err
		}
		return finish(commands.NewSuccessResponse(map[string]interface{}{
			"message": "server token cleared",
		}))
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// add server subcommands
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverKillCmd)
	serverCmd.AddCommand(serverTokenCmd)
	serverTokenCmd.AddCommand(serverTokenSetCmd)
	serverTokenCmd.AddCommand(serverTokenClearCmd)

	// server start flags
	serverStartCmd.Flags().String("listen", "", "Address to listen on (e.g., 'localhost:12000' or '0.0.0.0:13000')")
	serverStartCmd.Flags().Bool("cors", false, "Enable CORS support")
	serverStartCmd.Flags().BoolP("daemon", "d", false, "Run server in daemon mode (background)")

	// server kill flags
	serverKillCmd.Flags().String("listen", "", "Address of server to kill (default from config)")
}
