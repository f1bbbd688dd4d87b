package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCmd_WritesIndex(t *testing.T) {
	tmpDir := t.TempDir()
	indexDir := filepath.Join(tmpDir, ".hybridsearch")

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"create", "--dir", indexDir, "--dimension", "4"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "created index")

	info, statErr := os.Stat(indexDir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestCreateCmd_RejectsExistingIndex(t *testing.T) {
	tmpDir := t.TempDir()
	indexDir := filepath.Join(tmpDir, ".hybridsearch")

	first := NewRootCmd()
	first.SetOut(new(bytes.Buffer))
	first.SetArgs([]string{"create", "--dir", indexDir, "--dimension", "4"})
	require.NoError(t, first.Execute())

	second := NewRootCmd()
	buf := new(bytes.Buffer)
	second.SetOut(buf)
	second.SetErr(buf)
	second.SetArgs([]string{"create", "--dir", indexDir, "--dimension", "4"})

	err := second.Execute()
	assert.Error(t, err)
}
