package cmd

import (
	"fmt"
	"memcard/internal/locate"
	"strings"

	"github.com/spf13/cobra"
)

var locateCmd = &cobra.Command{
	Use:   "locate [game name]",
	Short: "Search for a game's save directory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")

		suggestions, err := locate.FindSaveLocations(name)
		if err != nil {
			return err
		}

		if len(suggestions) == 0 {
			fmt.Printf("no save locations found for %q\n", name)
			return nil
		}

		fmt.Printf("possible save locations for %q:\n", name)
		for _, s := range suggestions {
			fmt.Printf("  %s\n", s.Path)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(locateCmd)
}
