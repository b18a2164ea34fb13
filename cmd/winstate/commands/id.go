package commands

import (
	"fmt"

	"github.com/bryanchriswhite/winstate/internal/window"
	"github.com/spf13/cobra"
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Generate and inspect window identities",
}

var idNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Print a new random window identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), window.NewIdentity())
		return nil
	},
}

var idPrimaryCmd = &cobra.Command{
	Use:   "primary",
	Short: "Print the primary window identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), window.Primary())
		return nil
	},
}

var idParseCmd = &cobra.Command{
	Use:   "parse ID",
	Short: "Normalize an identity and report whether it is the primary window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := window.ParseIdentity(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s primary=%t\n", id, id.IsPrimary())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(idCmd)
	idCmd.AddCommand(idNewCmd)
	idCmd.AddCommand(idPrimaryCmd)
	idCmd.AddCommand(idParseCmd)
}
