package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joybratasarkar/financial-system-rag/internal/domain"
)

// snapshot is the on-disk form of the index. Vectors and chunks are
// serialized together so they can only be loaded as a matched pair.
type snapshot struct {
	Dimension int            `json:"dimension"`
	Vectors   [][]float32    `json:"vectors"`
	Chunks    []domain.Chunk `json:"chunks"`
}

// Save writes the index to path atomically (temp file plus rename).
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	snap := snapshot{
		Dimension: ix.dimension,
		Vectors:   ix.vectors,
		Chunks:    ix.chunks,
	}
	data, err := json.Marshal(snap)
	ix.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling index snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating index directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing index snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing index snapshot: %w", err)
	}
	return nil
}

// Load reads a persisted index from path. A snapshot whose vector count does
// not match its chunk count, or whose vectors are not uniformly sized, fails
// with ErrCorruptIndex; callers should start with an empty index instead of
// serving inconsistent results. A missing file is reported via os.IsNotExist.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}

	if len(snap.Vectors) != len(snap.Chunks) {
		return nil, fmt.Errorf("%w: %d vectors, %d chunks", ErrCorruptIndex,
			len(snap.Vectors), len(snap.Chunks))
	}
	for i, v := range snap.Vectors {
		if len(v) != snap.Dimension {
			return nil, fmt.Errorf("%w: vector %d has width %d, snapshot dimension is %d",
				ErrCorruptIndex, i, len(v), snap.Dimension)
		}
	}

	ix := &Index{
		dimension: snap.Dimension,
		vectors:   snap.Vectors,
		chunks:    snap.Chunks,
	}
	chunksTotal.Set(float64(len(ix.chunks)))
	return ix, nil
}
