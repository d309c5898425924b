package cli

import (
	"github.com/mobile-next/idbtap/commands"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the companion session",
	Long:  `Opens the configured companion and reports its target id, backend and address.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := commands.InfoCommand(cmd.Context(), "")
		if err != nil {
			return finish(commands.NewErrorResponse(err))
		}
		return finish(commands.NewSuccessResponse(info))
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
