package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joybratasarkar/financial-system-rag/internal/domain"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	ix := New()
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}}
	chunks := []domain.Chunk{
		chunkWith("a", "MSFT", "2023"),
		chunkWith("b", "AAPL", "2022"),
	}
	require.NoError(t, ix.Add(vectors, chunks))

	path := filepath.Join(t.TempDir(), "nested", "index.json")
	require.NoError(t, ix.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, 3, loaded.Dimension())

	hits := loaded.Search([]float32{1, 0, 0}, 1)
	require.Len(t, hits, 1)
	got, ok := loaded.Chunk(hits[0].Position)
	require.True(t, ok)
	assert.Equal(t, "a", got.ChunkID)
	assert.Equal(t, "MSFT", got.Metadata.Company)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
	assert.NotErrorIs(t, err, ErrCorruptIndex)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrCorruptIndex)
}

func TestLoad_CountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	snap := `{"dimension":2,"vectors":[[1,0],[0,1]],"chunks":[{"chunk_id":"only","content":"x","metadata":{"company":"MSFT","year":"2023","filing_type":"10-K"}}]}`
	require.NoError(t, os.WriteFile(path, []byte(snap), 0o600))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrCorruptIndex)
}

func TestLoad_DimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	snap := `{"dimension":3,"vectors":[[1,0]],"chunks":[{"chunk_id":"a","content":"x","metadata":{"company":"MSFT","year":"2023","filing_type":"10-K"}}]}`
	require.NoError(t, os.WriteFile(path, []byte(snap), 0o600))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrCorruptIndex)
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")

	ix := New()
	require.NoError(t, ix.Add([][]float32{{1, 0}}, []domain.Chunk{chunkWith("a", "MSFT", "2023")}))
	require.NoError(t, ix.Save(path))

	require.NoError(t, ix.Add([][]float32{{0, 1}}, []domain.Chunk{chunkWith("b", "MSFT", "2023")}))
	require.NoError(t, ix.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())

	// No stray temp file after a successful rename.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
