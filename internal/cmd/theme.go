package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/dnslog/internal/theme"
)

var themeCmd = &cobra.Command{
	Use:   "theme [light|dark|toggle]",
	Short: "Show or change the colour theme",
	Long: `Without arguments, print the current theme (the saved preference, or the
terminal background when nothing is saved). With an argument, save it.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"light", "dark", "toggle"},
	RunE:      runTheme,
}

func init() {
	rootCmd.AddCommand(themeCmd)
}

func runTheme(cmd *cobra.Command, args []string) error {
	store, err := openThemeStore()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), store.Theme())
		return nil
	}

	var t theme.Theme
	if args[0] == "toggle" {
		t, err = store.Toggle()
	} else {
		t, err = theme.Parse(args[0])
		if err == nil {
			err = store.Apply(t)
		}
	}
	if err != nil {
		return fmt.Errorf("theme: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), t)
	return nil
}
