package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/spanqa/spanqa/batch"
)

func writeTestDataset(t *testing.T) map[string]string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"vocab":     "the\ncat\nsat\non\nmat\nwhat\ndid\ndo\n",
		"contexts":  "the cat sat on the mat\nthe mat\nthe cat\n",
		"questions": "what did the cat do\nwhat\nwhat did\n",
		"answers":   "1 2\n0 0\n0 1\n",
	}

	paths := make(map[string]string, len(files))
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		paths[name] = path
	}
	return paths
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cli := NewCLI()
	var out bytes.Buffer
	cli.SetOut(&out)
	cli.SetErr(&out)
	cli.SetArgs(args)
	err := cli.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBatchCommand(t *testing.T) {
	paths := writeTestDataset(t)
	output := filepath.Join(t.TempDir(), "batches.cbor")

	_, err := runCLI(t, "batch",
		"--vocab", paths["vocab"],
		"--contexts", paths["contexts"],
		"--questions", paths["questions"],
		"--answers", paths["answers"],
		"--batch-size", "2",
		"--context-len", "10",
		"--question-len", "10",
		"--word-len", "5",
		"--seed", "3",
		"--output", output,
	)
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()

	dec := cbor.NewDecoder(f)
	var total, batches int
	for {
		var b batch.Batch
		if err := dec.Decode(&b); errors.Is(err, io.EOF) {
			break
		} else {
			require.NoError(t, err)
		}
		batches++
		total += b.Size
		require.Len(t, b.ContextIDs, b.Size)
		for _, ids := range b.ContextIDs {
			require.Len(t, ids, 10)
		}
	}

	require.Equal(t, 2, batches)
	require.Equal(t, 3, total)
}

func TestBatchCommand_MissingFlags(t *testing.T) {
	_, err := runCLI(t, "batch")
	require.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	paths := writeTestDataset(t)

	out, err := runCLI(t, "stats",
		"--vocab", paths["vocab"],
		"--contexts", paths["contexts"],
		"--questions", paths["questions"],
		"--answers", paths["answers"],
		"--batch-size", "2",
		"--context-len", "10",
		"--question-len", "10",
		"--word-len", "5",
	)
	require.NoError(t, err)
	require.Contains(t, out, "examples")
	require.Contains(t, out, "3")
}
