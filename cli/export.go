package cli

import (
	"fmt"
	"log"

	"github.com/javanhut/treestream/internal/colors"
	"github.com/javanhut/treestream/internal/export"
	"github.com/javanhut/treestream/internal/store"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <stream> <prefix>",
	Short: "Write each decoded path to its own file",
	Long: `Decode a tree stream and write every node except the root to a file named
<prefix><id>, with the id zero padded to four digits.

Examples:
  treestream export run.stream out/path-
  treestream export --mkdir run.stream.zst results/run1/
  treestream export --archive paths.db run.stream o`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

var (
	exportMkdir   bool
	exportArchive string
)

func init() {
	exportCmd.Flags().BoolVar(&exportMkdir, "mkdir", false, "create missing directories in the prefix")
	exportCmd.Flags().StringVar(&exportArchive, "archive", "", "store artifacts in a bbolt archive instead of files")
}

func runExport(cmd *cobra.Command, args []string) error {
	input, prefix := args[0], args[1]

	forest, err := decodeFile(input, nil)
	if err != nil {
		return err
	}

	var sink export.Sink = export.DirSink{MakeDirs: exportMkdir || settings.Export.MakeDirs}
	var db *store.DB
	if exportArchive != "" {
		db, err = store.Open(exportArchive)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer db.Close()
		sink = db
		log.Printf("writing artifacts to archive %s", exportArchive)
	}

	res, err := export.Forest(forest, prefix, sink)
	if err != nil {
		return err
	}

	if db != nil {
		if err := db.Stamp(input, settings.Decode.ByteOrder, res.Artifacts); err != nil {
			return fmt.Errorf("failed to record archive metadata: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %d paths (%d bytes)\n",
		colors.SuccessText("Exported"), res.Artifacts, res.Bytes)
	return nil
}
