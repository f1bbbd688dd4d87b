package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDocs(t *testing.T, dir string) {
	t.Helper()
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{
		"add", "--dir", dir,
		"--slug", "goroutines", "--title", "Goroutines in Go",
		"--body", "A goroutine is a lightweight thread managed by the Go runtime.",
	})
	require.NoError(t, cmd.Execute())

	cmd2 := NewRootCmd()
	cmd2.SetOut(new(bytes.Buffer))
	cmd2.SetArgs([]string{
		"add", "--dir", dir,
		"--slug", "channels", "--title", "Channels",
		"--body", "Channels are the pipes that connect concurrent goroutines.",
	})
	require.NoError(t, cmd2.Execute())
}

func TestSearchCmd_TextFindsIndexedDocument(t *testing.T) {
	dir := setupTestIndex(t)
	seedDocs(t, dir)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"search", "--dir", dir, "--text-only", "goroutine"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Goroutines in Go")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	dir := setupTestIndex(t)
	seedDocs(t, dir)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"search", "--dir", dir, "--format", "json", "channels"})

	err := cmd.Execute()
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &results))
	assert.NotEmpty(t, results)
}

func TestSearchCmd_NoResults(t *testing.T) {
	dir := setupTestIndex(t)
	seedDocs(t, dir)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"search", "--dir", dir, "--text-only", "zzznomatchzzz"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found")
}
