package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"arkive/archiver"
	"arkive/database"
	"arkive/storage"

	"github.com/spf13/cobra"
)

var hideCmd = &cobra.Command{
	Use:   "hide <url>",
	Short: "Hide a record from duplicate detection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setHidden(cmd, args[0], true)
	},
}

var unhideCmd = &cobra.Command{
	Use:   "unhide <url>",
	Short: "Clear the hidden flag of a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setHidden(cmd, args[0], false)
	},
}

var (
	listHidden bool
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded URLs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer database.Close(db)

		recs, err := storage.NewStore(db).List(cmd.Context(), listHidden, listLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "URL\tHIDDEN\tARCHIVE URL")
		for _, r := range recs {
			archiveURL := "-"
			if r.HasArchiveURL() {
				archiveURL = *r.ArchiveURL
			}
			fmt.Fprintf(w, "%s\t%t\t%s\n", r.URL, r.Hidden, archiveURL)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().BoolVar(&listHidden, "hidden", false, "Include hidden records")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of records (0 for all)")
}

func setHidden(cmd *cobra.Command, rawURL string, hidden bool) error {
	normalized, err := archiver.Normalize(rawURL)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	store := storage.NewStore(db)
	if hidden {
		err = store.SetHidden(cmd.Context(), normalized)
	} else {
		err = store.ClearHidden(cmd.Context(), normalized)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s hidden=%t\n", normalized, hidden)
	return nil
}
