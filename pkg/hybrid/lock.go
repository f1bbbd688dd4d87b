package hybrid

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// dirLock guards an index directory against the same process opening
// it twice, turning what would otherwise be silent corruption into an
// immediate, diagnosable error. It makes no cross-process promise:
// spec.md's "undefined behavior if opened twice" contract still
// stands for a second process, which flock cannot arbitrate portably
// without also blocking legitimate read-only tooling.
type dirLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

func newDirLock(dir string) *dirLock {
	path := filepath.Join(dir, ".hybrid.lock")
	return &dirLock{path: path, flock: flock.New(path)}
}

func (l *dirLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("hybrid: create lock directory: %w", err)
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("hybrid: acquire directory lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("hybrid: directory %q is already open", filepath.Dir(l.path))
	}
	l.locked = true
	return nil
}

func (l *dirLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	return l.flock.Unlock()
}
