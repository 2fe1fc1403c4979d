package cmd

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/poorfish/maptoposter/internal/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the built-in themes",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := theme.Builtin()
		if err != nil {
			return err
		}
		return printThemes(cmd.OutOrStdout(), registry.All())
	},
}

func init() {
	rootCmd.AddCommand(themesCmd)
}

func printThemes(w io.Writer, themes []*theme.Theme) error {
	idWidth, nameWidth := 0, 0
	for _, t := range themes {
		idWidth = max(idWidth, runewidth.StringWidth(t.ID))
		nameWidth = max(nameWidth, runewidth.StringWidth(t.Name))
	}

	for _, t := range themes {
		_, err := fmt.Fprintf(w, "%s  %s  %s\n",
			runewidth.FillRight(t.ID, idWidth),
			runewidth.FillRight(t.Name, nameWidth),
			t.Description,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
