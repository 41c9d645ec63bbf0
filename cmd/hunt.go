package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pokecounter/pokecounter/pkg/tracker"
	"github.com/spf13/cobra"
)

var huntCmd = &cobra.Command{
	Use:   "hunt",
	Short: "List and update your hunts",
}

var huntListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hunts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withList(cmd.Context(), false, func(list *tracker.List) error {
			items := list.Items()
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No hunts yet. Start one with 'pokecounter hunt add <name>'.")
				return nil
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		})
	},
}

var huntAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Start a new hunt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withList(cmd.Context(), true, func(list *tracker.List) error {
			created, err := list.Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printItems(cmd.OutOrStdout(), created)
			return nil
		})
	},
}

// editCommand builds a command that changes one hunt. editOnly commands are
// refused while the hunt is closed.
func editCommand(use, short string, args cobra.PositionalArgs, editOnly bool, edit func(cmd *cobra.Command, list *tracker.List, id string, args []string) (tracker.Item, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withList(cmd.Context(), true, func(list *tracker.List) error {
				id, err := resolveID(list, args[0])
				if err != nil {
					return err
				}
				it, _ := list.Get(id)
				if editOnly && !it.Editable() {
					return fmt.Errorf("hunt %s (%s) is closed, reopen it first", id, it.Name)
				}
				updated, err := edit(cmd, list, id, args[1:])
				if err != nil {
					return err
				}
				printItems(cmd.OutOrStdout(), []tracker.Item{updated})
				return nil
			})
		},
	}
}

func applyArg(column string) func(*cobra.Command, *tracker.List, string, []string) (tracker.Item, error) {
	return func(cmd *cobra.Command, list *tracker.List, id string, args []string) (tracker.Item, error) {
		m, err := tracker.ParseMutation(column, strings.Join(args, " "))
		if err != nil {
			return tracker.Item{}, err
		}
		return list.Apply(cmd.Context(), id, m)
	}
}

func adjustArg(delta int) func(*cobra.Command, *tracker.List, string, []string) (tracker.Item, error) {
	return func(cmd *cobra.Command, list *tracker.List, id string, _ []string) (tracker.Item, error) {
		return list.Adjust(cmd.Context(), id, delta)
	}
}

func setStatus(status tracker.Status) func(*cobra.Command, *tracker.List, string, []string) (tracker.Item, error) {
	return func(cmd *cobra.Command, list *tracker.List, id string, _ []string) (tracker.Item, error) {
		return list.Apply(cmd.Context(), id, tracker.SetStatus{Status: status})
	}
}

var huntDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a hunt (asks for confirmation)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return withList(cmd.Context(), true, func(list *tracker.List) error {
			id, err := resolveID(list, args[0])
			if err != nil {
				return err
			}
			if err := list.MarkDelete(id); err != nil {
				return err
			}
			it, _ := list.Get(id)
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete hunt %s (%s, %d attempts)?", it.ID, it.Name, it.Count)) {
				list.CancelDelete(id)
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			if err := list.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", it.ID, it.Name)
			return nil
		})
	},
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func printItems(out io.Writer, items []tracker.Item) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOUNT\tMETHOD\tGAME\tSTATUS\tSTARTED")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Name, strconv.Itoa(it.Count), orDash(string(it.Method)), orDash(it.Game), it.Status,
			it.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(huntCmd)
	huntCmd.AddCommand(huntListCmd)
	huntCmd.AddCommand(huntAddCmd)
	huntCmd.AddCommand(editCommand("inc <id>", "Add one attempt", cobra.ExactArgs(1), true, adjustArg(1)))
	huntCmd.AddCommand(editCommand("dec <id>", "Remove one attempt (never below zero)", cobra.ExactArgs(1), true, adjustArg(-1)))
	huntCmd.AddCommand(editCommand("set-count <id> <count>", "Overwrite the attempt count", cobra.ExactArgs(2), true, applyArg(tracker.ColumnCount)))
	huntCmd.AddCommand(editCommand("method <id> [method]", "Set the hunting method (empty clears it)", cobra.MinimumNArgs(1), true, applyArg(tracker.ColumnMethod)))
	huntCmd.AddCommand(editCommand("game <id> [game]", "Set the game", cobra.MinimumNArgs(1), true, applyArg(tracker.ColumnGame)))
	huntCmd.AddCommand(editCommand("close <id>", "Mark a hunt as found", cobra.ExactArgs(1), false, setStatus(tracker.StatusClosed)))
	huntCmd.AddCommand(editCommand("open <id>", "Reopen a closed hunt", cobra.ExactArgs(1), false, setStatus(tracker.StatusOpen)))
	huntCmd.AddCommand(huntDeleteCmd)

	huntDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking")
}
