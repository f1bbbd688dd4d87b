package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoCmd_TextOutput(t *testing.T) {
	dir := setupTestIndex(t)
	seedDocs(t, dir)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"info", "--dir", dir})

	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "dimension:")
	assert.Contains(t, output, "documents:")
}

func TestInfoCmd_JSONOutput(t *testing.T) {
	dir := setupTestIndex(t)
	seedDocs(t, dir)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"info", "--dir", dir, "--json"})

	err := cmd.Execute()
	require.NoError(t, err)

	var info map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.EqualValues(t, 2, info["DocCount"])
}
