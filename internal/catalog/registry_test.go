package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookora/internal/domain/models"
)

func TestEmbeddedCatalog(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{"Fantasy", "Science Fiction", "Mystery", "Romance", "Thriller", "Non-Fiction", "Biography", "Self-Help"}, r.Genres())
	assert.Equal(t, "Fantasy", r.DefaultGenre())
	assert.Len(t, r.BlockTypes(), 4)
	assert.True(t, r.IsBlockType(models.BlockVideo))
	assert.Equal(t, "https://picsum.photos/seed/42/400/600", r.DefaultCover(42))
}

func TestCanonicalGenre(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"fantasy", "Fantasy", true},
		{" science fiction ", "Science Fiction", true},
		{"SELF-HELP", "Self-Help", true},
		{"Poetry", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := r.CanonicalGenre(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsBadCatalog(t *testing.T) {
	_, err := Parse([]byte("genres: []"))
	assert.Error(t, err)

	_, err = Parse([]byte("genres: [A]\nblock_types:\n  - type: table\n"))
	assert.Error(t, err)
}
