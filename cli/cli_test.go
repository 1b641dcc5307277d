package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/javanhut/treestream/internal/treestream"
)

// runCLI executes the root command in an isolated home and working directory.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	flagByteOrder, flagForkPolicy = "", ""
	flagVerbose = false
	inspectRecords = false
	exportMkdir, exportArchive = false, ""
	encodeCompress = false
	configGlobal, configList = false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", filepath.Join(dir, "home"))
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

const scenarioScript = `# concrete scenario
append 0 AB
fork 0 1
append 1 C
append 0 D
`

func TestEncodeScript(t *testing.T) {
	var buf bytes.Buffer
	n, err := encodeScript(strings.NewReader(scenarioScript+"append 7 \"x\\ny\"\n"), treestream.NewEncoder(&buf, nil))
	if err != nil {
		t.Fatalf("encodeScript failed: %v", err)
	}
	if n != 5 {
		t.Errorf("wrote %d records, want 5", n)
	}

	f, err := treestream.Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for id, want := range map[uint32]string{0: "ABD", 1: "ABC", 7: "x\ny"} {
		got, _ := f.Bytes(id)
		if string(got) != want {
			t.Errorf("node %d = %q, want %q", id, got, want)
		}
	}
}

func TestEncodeScriptErrors(t *testing.T) {
	tests := []string{
		"branch 0 1",
		"fork 0",
		"fork a 1",
		"append -1 x",
		"append 0 \"unterminated",
		"fork 0 2147483648",
	}
	for _, script := range tests {
		_, err := encodeScript(strings.NewReader("append 0 ok\n"+script), treestream.NewEncoder(&bytes.Buffer{}, nil))
		if err == nil {
			t.Errorf("script %q should fail", script)
			continue
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Errorf("error %q should name line 2", err)
		}
	}
}

func TestEncodeThenExport(t *testing.T) {
	dir := isolate(t)
	writeFile(t, "scenario.txt", scenarioScript)

	if _, err := runCLI(t, "encode", "scenario.txt", "scenario.stream"); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	out, err := runCLI(t, "export", "scenario.stream", filepath.Join(dir, "o"))
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "Exported 1 paths") {
		t.Errorf("unexpected output: %q", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "o0001"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "ABC" {
		t.Errorf("o0001 = %q, want ABC", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "o0000")); !os.IsNotExist(err) {
		t.Error("root must not be exported")
	}
}

func TestExportCompressedBigEndianStream(t *testing.T) {
	isolate(t)
	writeFile(t, "s.txt", scenarioScript)

	if _, err := runCLI(t, "--byte-order", "big", "encode", "--zstd", "s.txt", "s.stream.zst"); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := runCLI(t, "--byte-order", "big", "export", "--mkdir", "s.stream.zst", "out/run/p"); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join("out", "run", "p0001"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "ABC" {
		t.Errorf("p0001 = %q, want ABC", data)
	}
}

func TestExportToArchive(t *testing.T) {
	isolate(t)
	writeFile(t, "s.txt", scenarioScript+"fork 1 2\nfork 1 3\n")

	if _, err := runCLI(t, "encode", "s.txt", "s.stream"); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := runCLI(t, "export", "--archive", "paths.db", "s.stream", "o"); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	out, err := runCLI(t, "archive", "ls", "paths.db")
	if err != nil {
		t.Fatalf("archive ls failed: %v", err)
	}
	for _, want := range []string{"source: s.stream", "o0001", "o0002", "o0003", "3 artifacts, 1 distinct contents"} {
		if !strings.Contains(out, want) {
			t.Errorf("archive ls output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "archive", "cat", "paths.db", "o0003")
	if err != nil {
		t.Fatalf("archive cat failed: %v", err)
	}
	if out != "ABC" {
		t.Errorf("archive cat = %q, want ABC", out)
	}
}

func TestInspect(t *testing.T) {
	isolate(t)
	writeFile(t, "s.txt", scenarioScript)
	if _, err := runCLI(t, "encode", "s.txt", "s.stream"); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	out, err := runCLI(t, "inspect", "--records", "s.stream")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"Records:", "fork   0000 -> 0001", "Nodes (2):", "6 bytes across 2 nodes, 2 distinct contents"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestDecodeErrorIsReported(t *testing.T) {
	isolate(t)
	writeFile(t, "bad.stream", "\x00\x00\x00\x00\x09\x00\x00\x00abc")

	_, err := runCLI(t, "export", "bad.stream", "o")
	if !errors.Is(err, treestream.ErrShortPayload) {
		t.Fatalf("got %v, want ErrShortPayload", err)
	}
	if !strings.Contains(err.Error(), "offset 0") {
		t.Errorf("error %q should name the offset", err)
	}
}

func TestForkPolicyFlag(t *testing.T) {
	isolate(t)
	writeFile(t, "s.txt", "append 1 old\nfork 0 1\n")
	if _, err := runCLI(t, "encode", "s.txt", "s.stream"); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if _, err := runCLI(t, "export", "s.stream", "o"); err != nil {
		t.Fatalf("overwrite policy should succeed: %v", err)
	}
	_, err := runCLI(t, "--fork-policy", "reject", "export", "s.stream", "o")
	if !errors.Is(err, treestream.ErrChildExists) {
		t.Fatalf("got %v, want ErrChildExists", err)
	}
}

func TestConfigCommand(t *testing.T) {
	isolate(t)

	if _, err := runCLI(t, "config", "decode.byte_order", "big"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	out, err := runCLI(t, "config", "decode.byte_order")
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if strings.TrimSpace(out) != "big" {
		t.Errorf("decode.byte_order = %q, want big", out)
	}

	out, err = runCLI(t, "config", "--list")
	if err != nil {
		t.Fatalf("config --list failed: %v", err)
	}
	if !strings.Contains(out, "decode.fork_policy = overwrite") {
		t.Errorf("config --list output:\n%s", out)
	}
}

func TestExportRawStreamStartingWithZstdMagic(t *testing.T) {
	dir := isolate(t)

	// Little-endian id 0xFD2FB528 encodes as the zstd frame magic.
	var buf bytes.Buffer
	if err := treestream.NewEncoder(&buf, nil).Append(0xFD2FB528, []byte("hello")); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	writeFile(t, "s.bin", buf.String())

	if _, err := runCLI(t, "export", "s.bin", filepath.Join(dir, "o")); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "o4247762216"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("o4247762216 = %q, want hello", data)
	}
}
