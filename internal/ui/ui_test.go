package ui

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTTY_NonFileWriter(t *testing.T) {
	var buf testWriter
	assert.False(t, IsTTY(&buf))
}

func TestIsTTY_NilWriter(t *testing.T) {
	assert.False(t, IsTTY(nil))
}

func TestIsTTY_DevNull(t *testing.T) {
	f, err := os.Open(os.DevNull)
	assert.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTTY(f))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestDetectNoColor_Unset(t *testing.T) {
	os.Unsetenv("NO_COLOR")
	assert.False(t, DetectNoColor())
}

func TestDetectCI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.True(t, DetectCI())
}

func TestNewBrowser_ForcePlain(t *testing.T) {
	var buf testWriter
	b := NewBrowser(Config{Output: &buf, ForcePlain: true})
	_, ok := b.(*PlainBrowser)
	assert.True(t, ok)
}

func TestNewBrowser_NonTTYFallsBackToPlain(t *testing.T) {
	var buf testWriter
	b := NewBrowser(Config{Output: &buf})
	_, ok := b.(*PlainBrowser)
	assert.True(t, ok)
}

type testWriter struct{ data []byte }

func (w *testWriter) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}
