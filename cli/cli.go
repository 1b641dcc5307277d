package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/javanhut/treestream/internal/colors"
	"github.com/javanhut/treestream/internal/config"
	"github.com/javanhut/treestream/internal/pack"
	"github.com/javanhut/treestream/internal/treestream"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "treestream",
	Short: "Decode tree stream logs into per-path buffers",
	Long: `treestream reconstructs the forest of per-path byte buffers recorded in a
tree stream: a flat log of append and fork records where sibling paths share
their common prefix.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupRun,
}

var (
	flagByteOrder  string
	flagForkPolicy string
	flagVerbose    bool
	flagNoColor    bool
)

// settings is the resolved configuration for the current command.
var settings *config.Config

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, colors.ErrorText("Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagByteOrder, "byte-order", "", "integer byte order of the stream: little or big")
	pf.StringVar(&flagForkPolicy, "fork-policy", "", "fork onto an existing id: overwrite or reject")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log progress to stderr")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(encodeCmd)

	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveListCmd, archiveCatCmd)

	rootCmd.AddCommand(configCmd)
}

// setupRun loads config files and applies command line overrides.
func setupRun(cmd *cobra.Command, args []string) error {
	log.SetFlags(0)
	log.SetPrefix("treestream: ")
	if flagVerbose {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flagByteOrder != "" {
		if err := cfg.Set("decode.byte_order", flagByteOrder); err != nil {
			return err
		}
	}
	if flagForkPolicy != "" {
		if err := cfg.Set("decode.fork_policy", flagForkPolicy); err != nil {
			return err
		}
	}
	if flagNoColor || !cfg.Color.UI {
		colors.SetColorEnabled(false)
	}
	settings = cfg
	return nil
}

// readStream reads a stream file, or stdin for "-", decompressing zstd input.
func readStream(path string) ([]byte, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open stream: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := pack.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", path, err)
	}
	return data, nil
}

// decodeFile reads and decodes a stream using the resolved settings.
func decodeFile(path string, onRecord func(treestream.Record)) (*treestream.Forest, error) {
	blob, err := readStream(path)
	if err != nil {
		return nil, err
	}
	opts, err := settings.DecodeOptions()
	if err != nil {
		return nil, err
	}
	opts.OnRecord = onRecord

	log.Printf("decoding %s (%d bytes, %s byte order)", path, len(blob), settings.Decode.ByteOrder)
	forest, err := treestream.NewDecoder(opts).Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	log.Printf("decoded %d nodes, %d bytes total", forest.Len(), forest.Size())
	return forest, nil
}
