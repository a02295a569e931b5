package cmd

import (
	"github.com/outhook-io/outhook/config"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Long:  `Print the version with a short commit hash.`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("Outhook %s (%s)\n", config.VERSION, config.COMMIT)
		},
	}
}
