package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/dataset"
)

func testCatalog() *Catalog {
	return New([]dataset.ItemRecord{
		{ID: 3, Title: "Toy Story 2"},
		{ID: 1, Title: "Toy Story"},
		{ID: 2, Title: "GoldenEye"},
		{ID: 4, Title: "Four Rooms"},
		{ID: 5, Title: "Café Society (2016)"},
	})
}

func TestResolve(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name      string
		query     string
		threshold int
		wantID    int64
		wantTitle string
		wantErr   bool
	}{
		{name: "typo", query: "Toy Stry", threshold: 70, wantID: 1, wantTitle: "Toy Story"},
		{name: "exact beats superset", query: "Toy Story", threshold: 70, wantID: 1, wantTitle: "Toy Story"},
		{name: "sequel", query: "toy story 2", threshold: 70, wantID: 3, wantTitle: "Toy Story 2"},
		{name: "word order", query: "rooms four", threshold: 70, wantID: 4, wantTitle: "Four Rooms"},
		{name: "accents and year", query: "cafe society", threshold: 70, wantID: 5, wantTitle: "Café Society (2016)"},
		{name: "default threshold", query: "goldeneye", threshold: 0, wantID: 2, wantTitle: "GoldenEye"},
		{name: "garbage", query: "zzzqqq", threshold: 70, wantErr: true},
		{name: "empty query", query: "   ", threshold: 70, wantErr: true},
		{name: "strict threshold", query: "Toy Stry", threshold: 95, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := c.Resolve(tt.query, tt.threshold)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsItemNotFound(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, m.ItemID)
			assert.Equal(t, tt.wantTitle, m.Title)
			assert.GreaterOrEqual(t, m.Score, 70)
		})
	}
}

func TestResolve_EmptyCatalog(t *testing.T) {
	_, err := New(nil).Resolve("Toy Story", DefaultThreshold)
	assert.ErrorIs(t, err, core.ErrItemNotFound)
}

func TestResolve_TieBreakIsLexicographic(t *testing.T) {
	c := New([]dataset.ItemRecord{
		{ID: 2, Title: "heat"},
		{ID: 1, Title: "Heat"},
	})
	for i := 0; i < 5; i++ {
		m, err := c.Resolve("HEAT", DefaultThreshold)
		require.NoError(t, err)
		assert.Equal(t, int64(1), m.ItemID)
		assert.Equal(t, "Heat", m.Title)
	}
}

func TestResolve_SubsetTokenScoresFull(t *testing.T) {
	// 查询的词全部出现在标题里时 token_set_ratio 为 100，
	// 所以像 "the" 这样的短查询会以满分命中，并列时整体 ratio 高者优先
	c := New([]dataset.ItemRecord{
		{ID: 1, Title: "Toy Story (1995)"},
		{ID: 2, Title: "Lion King, The (1994)"},
		{ID: 3, Title: "Net, The (1995)"},
	})

	tests := []struct {
		query string
		want  int64
		score int
	}{
		{query: "the", want: 3, score: 100},
		{query: "THE", want: 3, score: 100},
		{query: "king", want: 2, score: 100},
		{query: "story", want: 1, score: 100},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			m, err := c.Resolve(tt.query, DefaultThreshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.ItemID)
			assert.Equal(t, tt.score, m.Score)
		})
	}

	matches := c.Search("the", DefaultThreshold, 10)
	require.Len(t, matches, 2)
	assert.Equal(t, []int64{3, 2}, []int64{matches[0].ItemID, matches[1].ItemID})
}

func TestNew_DuplicateTitleLastWriteWins(t *testing.T) {
	c := New([]dataset.ItemRecord{
		{ID: 1, Title: "Crash"},
		{ID: 9, Title: "Other"},
		{ID: 2, Title: "Crash"},
	})
	assert.Equal(t, 2, c.Len())

	id, ok := c.ItemID("Crash")
	require.True(t, ok)
	assert.Equal(t, int64(2), id)

	m, err := c.Resolve("crash", DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.ItemID)

	title, ok := c.Title(1)
	require.True(t, ok)
	assert.Equal(t, "Crash", title)
}

func TestSearch(t *testing.T) {
	c := testCatalog()
	matches := c.Search("toy story", 70, 5)
	require.Len(t, matches, 2)
	assert.Equal(t, "Toy Story", matches[0].Title)
	assert.Equal(t, "Toy Story 2", matches[1].Title)

	assert.Len(t, c.Search("toy story", 70, 1), 1)
	assert.Empty(t, c.Search("toy story", 70, 0))
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "u.item")
	require.NoError(t, os.WriteFile(p, []byte("1|Toy Story (1995)|x\n2|GoldenEye (1995)|y\n"), 0o644))

	c, err := Load(dataset.TableConfig{Path: p})
	require.NoError(t, err)
	m, err := c.Resolve("Toy Stry", DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.ItemID)

	_, err = Load(dataset.TableConfig{Path: filepath.Join(t.TempDir(), "missing")})
	assert.True(t, core.IsStorageFailure(err))
}

func TestFuzzyPrimitives(t *testing.T) {
	assert.Equal(t, 100, ratio("abc", "abc"))
	assert.Equal(t, 0, ratio("", "abc"))
	assert.Equal(t, 57, ratio("kitten", "sitting"))
	assert.Equal(t, 100, tokenSetRatio("story toy", "toy story"))
	assert.Equal(t, 0, tokenSetRatio("", "toy story"))

	assert.Equal(t, "toy story", normalize("  Toy-Story (1995) "))
	assert.Equal(t, "amelie", normalize("Amélie"))
	assert.Equal(t, "", normalize("!!!"))
}
