package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectCmd_FallsBackToPlainTable(t *testing.T) {
	dir := setupTestIndex(t)
	seedDocs(t, dir)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"inspect", "--dir", dir, "goroutine"})

	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "query: \"goroutine\"")
	assert.Contains(t, output, "Goroutines in Go")
}

func TestInspectCmd_NoResults(t *testing.T) {
	dir := setupTestIndex(t)
	seedDocs(t, dir)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"inspect", "--dir", dir, "--text-only", "zzznomatchzzz"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found")
}
