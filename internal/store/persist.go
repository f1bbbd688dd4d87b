package store

import (
	"encoding/gob"
	"os"
	"path/filepath"
)

// atomicWrite writes via write(tmpFile) then renames tmpFile over
// path, so a crash mid-write never leaves a half-written path behind.
// Grounded on the same temp-file-then-rename shape metadata.Save and
// the teacher's HNSWStore.saveMetadata use. The temp file is created
// alongside path so the final rename stays within one filesystem.
func atomicWrite(path string, write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hybrid-vector-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// liveSnapshot is the gob-encoded shape of a VectorIndex's live set.
type liveSnapshot struct {
	Live   map[uint64][]float32
	Config VectorConfig
}

func gobEncodeLive(f *os.File, live map[uint64][]float32, cfg VectorConfig) error {
	return gob.NewEncoder(f).Encode(liveSnapshot{Live: live, Config: cfg})
}

func gobDecodeLive(f *os.File) (map[uint64][]float32, VectorConfig, error) {
	var snap liveSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, VectorConfig{}, err
	}
	if snap.Live == nil {
		snap.Live = make(map[uint64][]float32)
	}
	return snap.Live, snap.Config, nil
}
