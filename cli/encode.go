package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/javanhut/treestream/internal/colors"
	"github.com/javanhut/treestream/internal/config"
	"github.com/javanhut/treestream/internal/pack"
	"github.com/javanhut/treestream/internal/treestream"
	"github.com/spf13/cobra"
)

var encodeCmd = &cobra.Command{
	Use:   "encode <script> <output>",
	Short: "Build a tree stream from a text script",
	Long: `Build a tree stream from a script with one operation per line:

  append <id> <text>       append text (a Go quoted string is unquoted)
  fork <source> <child>    start child as a snapshot of source

Blank lines and lines starting with # are ignored.

Example script:
  append 0 AB
  fork 0 1
  append 1 C
  append 0 "D\n"`,
	Args: cobra.ExactArgs(2),
	RunE: runEncode,
}

var encodeCompress bool

func init() {
	encodeCmd.Flags().BoolVar(&encodeCompress, "zstd", false, "compress the output with zstd")
}

func runEncode(cmd *cobra.Command, args []string) error {
	script, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer script.Close()

	order, err := config.ParseByteOrder(settings.Decode.ByteOrder)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	n, err := encodeScript(script, treestream.NewEncoder(&buf, order))
	if err != nil {
		return err
	}

	out, err := os.Create(args[1])
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if encodeCompress {
		err = pack.CompressTo(out, buf.Bytes())
	} else {
		_, err = out.Write(buf.Bytes())
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %d records (%d bytes) to %s\n",
		colors.SuccessText("Encoded"), n, buf.Len(), args[1])
	return nil
}

// encodeScript writes the operations of a script to enc and returns the
// number of records written.
func encodeScript(r io.Reader, enc *treestream.Encoder) (int, error) {
	sc := bufio.NewScanner(r)
	count := 0
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		op, rest, _ := strings.Cut(text, " ")
		rest = strings.TrimSpace(rest)

		var err error
		switch op {
		case "append":
			err = scriptAppend(enc, rest)
		case "fork":
			err = scriptFork(enc, rest)
		default:
			err = fmt.Errorf("unknown operation %q", op)
		}
		if err != nil {
			return count, fmt.Errorf("script line %d: %w", line, err)
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return count, fmt.Errorf("failed to read script: %w", err)
	}
	return count, nil
}

func scriptAppend(enc *treestream.Encoder, rest string) error {
	idText, payload, _ := strings.Cut(rest, " ")
	id, err := parseID(idText)
	if err != nil {
		return err
	}
	if strings.HasPrefix(payload, `"`) {
		payload, err = strconv.Unquote(payload)
		if err != nil {
			return fmt.Errorf("invalid quoted text: %w", err)
		}
	}
	return enc.Append(id, []byte(payload))
}

func scriptFork(enc *treestream.Encoder, rest string) error {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return fmt.Errorf("fork takes a source and a child id")
	}
	source, err := parseID(fields[0])
	if err != nil {
		return err
	}
	child, err := parseID(fields[1])
	if err != nil {
		return err
	}
	return enc.Fork(source, child)
}

func parseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q", s)
	}
	return uint32(v), nil
}
