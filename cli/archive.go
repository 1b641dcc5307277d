package cli

import (
	"fmt"

	"github.com/javanhut/treestream/internal/colors"
	"github.com/javanhut/treestream/internal/store"
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Read artifacts stored with export --archive",
}

var archiveListCmd = &cobra.Command{
	Use:   "ls <archive>",
	Short: "List archived artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveList,
}

var archiveCatCmd = &cobra.Command{
	Use:   "cat <archive> <name>",
	Short: "Write an archived artifact to stdout",
	Args:  cobra.ExactArgs(2),
	RunE:  runArchiveCat,
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	db, err := store.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer db.Close()

	entries, err := db.List()
	if err != nil {
		return err
	}
	blobs, err := db.BlobCount()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if src, err := db.GetMeta(store.MetaSource); err == nil {
		fmt.Fprintf(out, "%s %s\n", colors.Gray("source:"), src)
	}
	for _, e := range entries {
		fmt.Fprintf(out, "  %s  %s\n", colors.InfoText(e.Name), colors.Gray(e.Hash.String()[:16]))
	}
	fmt.Fprintf(out, "%d artifacts, %d distinct contents\n", len(entries), blobs)
	return nil
}

func runArchiveCat(cmd *cobra.Command, args []string) error {
	db, err := store.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer db.Close()

	hash, err := db.Lookup(args[1])
	if err != nil {
		return err
	}
	data, err := db.Blobs().Get(hash)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
