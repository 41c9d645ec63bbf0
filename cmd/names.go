package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "Look up Pokémon names in the name registry",
}

var namesCheckCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Check whether a name can be used for a new hunt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadNames()
		if err != nil {
			return err
		}
		name := strings.Join(args, " ")
		if !reg.Contains(name) {
			return fmt.Errorf("%q is not a known Pokémon", name)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is known\n", name)
		return nil
	},
}

var namesTranslateCmd = &cobra.Command{
	Use:   "translate <name>",
	Short: "Print the English and German spelling of a name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadNames()
		if err != nil {
			return err
		}
		name := strings.Join(args, " ")
		e, ok := reg.Lookup(name)
		if !ok {
			return fmt.Errorf("%q is not a known Pokémon", name)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "english: %s\ngerman:  %s\n", e.English, e.German)

		if sprite, _ := cmd.Flags().GetBool("sprite"); sprite {
			sc := spriteClient(reg)
			if sc == nil {
				return fmt.Errorf("sprites are disabled (sprites.enabled)")
			}
			if u, ok := sc.Lookup(cmd.Context(), e.English); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "sprite:  %s\n", u)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(namesCmd)
	namesCmd.AddCommand(namesCheckCmd)
	namesCmd.AddCommand(namesTranslateCmd)
	namesTranslateCmd.Flags().Bool("sprite", false, "Also look up the shiny sprite URL")
}
