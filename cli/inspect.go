package cli

import (
	"fmt"
	"io"

	"github.com/javanhut/treestream/internal/colors"
	"github.com/javanhut/treestream/internal/treestream"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <stream>",
	Short: "Summarize the nodes of a tree stream",
	Long: `Decode a tree stream and list every node with its size and BLAKE3 digest.
With --records, print each record as it is replayed.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var inspectRecords bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectRecords, "records", false, "print each record while decoding")
}

func runInspect(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var onRecord func(treestream.Record)
	if inspectRecords {
		fmt.Fprintln(out, colors.SectionHeader("Records:"))
		onRecord = func(r treestream.Record) { printRecord(out, r) }
	}

	forest, err := decodeFile(args[0], onRecord)
	if err != nil {
		return err
	}

	if inspectRecords {
		fmt.Fprintln(out)
	}
	printForest(out, forest)
	return nil
}

func printRecord(w io.Writer, r treestream.Record) {
	switch r.Kind {
	case treestream.KindFork:
		fmt.Fprintf(w, "  %8d %s fork   %s -> %s\n", r.Offset, colors.ForkMarker(), colors.NodeID(r.ID), colors.NodeID(r.Child))
	case treestream.KindAppend:
		fmt.Fprintf(w, "  %8d %s append %s %s\n", r.Offset, colors.AppendMarker(), colors.NodeID(r.ID), colors.Dim(fmt.Sprintf("%d bytes", len(r.Payload))))
	}
}

func printForest(w io.Writer, f *treestream.Forest) {
	fmt.Fprintln(w, colors.SectionHeader(fmt.Sprintf("Nodes (%d):", f.Len())))
	unique := make(map[string]bool)
	for _, id := range f.IDs() {
		b, _ := f.Buffer(id)
		digest, _ := f.Digest(id)
		unique[digest.String()] = true

		label := colors.NodeID(id)
		if id == treestream.RootID {
			label += colors.Gray(" (root)")
		}
		fmt.Fprintf(w, "  %s  %10d  %s\n", label, b.Len(), colors.Gray(digest.String()[:16]))
	}
	fmt.Fprintf(w, "\n%d bytes across %d nodes, %d distinct contents\n", f.Size(), f.Len(), len(unique))
}
