package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the conversation log database and collection if they don't exist",
	Args:  cobra.NoArgs,
	RunE:  runProvision,
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}

func runProvision(cmd *cobra.Command, args []string) (err error) {
	storeConn := newStoreConnection(v, newMeter())
	defer storeConn.Close()

	_, link, err := storeConn.EnsureConfigured(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Conversation log ready at [%s]\n", link)

	return nil
}
