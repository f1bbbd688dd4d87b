package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactCmd_RunsCleanly(t *testing.T) {
	dir := setupTestIndex(t)
	seedDocs(t, dir)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"compact", "--dir", dir})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "compaction complete")
}

func TestCompactCmd_NoIndex(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"compact", "--dir", t.TempDir()})

	err := cmd.Execute()
	assert.Error(t, err)
}
