package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear recorded prompt inputs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().Bool("clear", false, "Delete every recorded entry")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if clearAll, _ := cmd.Flags().GetBool("clear"); clearAll {
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Recent(limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(out, "%5d  %s  %s\n", e.Seq, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Input)
		if e.IsError {
			errorColor.Fprintf(out, "       %s\n", e.Output)
		} else {
			fmt.Fprintf(out, "       %s\n", e.Output)
		}
	}
	return nil
}
