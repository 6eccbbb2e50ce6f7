package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigGet(t *testing.T) {
	cfg := map[string]any{
		"name":    "mf",
		"dedup":   false,
		"n":       10,
		"timeout": 2.0,
		"weight":  3,
		"sources": []any{map[string]any{"type": "mf"}, "junk", map[string]any{"type": "popular"}},
	}

	assert.Equal(t, "mf", ConfigGet(cfg, "name", ""))
	assert.Equal(t, "x", ConfigGet(cfg, "missing", "x"))
	assert.Equal(t, false, ConfigGet(cfg, "dedup", true))
	assert.Equal(t, "fallback", ConfigGet(cfg, "n", "fallback"))

	assert.Equal(t, int64(10), ConfigGetInt64(cfg, "n", 0))
	assert.Equal(t, int64(2), ConfigGetInt64(cfg, "timeout", 0))
	assert.Equal(t, int64(5), ConfigGetInt64(cfg, "name", 5))
	assert.Equal(t, int64(5), ConfigGetInt64(nil, "n", 5))

	assert.Equal(t, int64(3), ConfigGetInt64(cfg, "weight", 0))

	sources := SliceOfMaps(cfg["sources"])
	assert.Len(t, sources, 2)
	assert.Equal(t, "popular", sources[1]["type"])
	assert.Nil(t, SliceOfMaps("nope"))

	n, ok := ToInt64(7.0)
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)
	_, ok = ToInt64("7")
	assert.False(t, ok)
}
