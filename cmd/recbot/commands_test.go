package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recbot/catalog"
	"github.com/rushteam/recbot/dataset"
	"github.com/rushteam/recbot/engine"
	"github.com/rushteam/recbot/identity"
	"github.com/rushteam/recbot/model"
	"github.com/rushteam/recbot/rating"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	dir := t.TempDir()
	cfg := model.DefaultConfig()
	cfg.Factors = 2
	cfg.Iterations = 5

	e, err := engine.New(engine.Deps{
		Catalog: catalog.New([]dataset.ItemRecord{
			{ID: 1, Title: "Toy Story (1995)"},
			{ID: 2, Title: "GoldenEye (1995)"},
			{ID: 3, Title: "Four Rooms (1995)"},
		}),
		Registry: identity.New(nil, dataset.NewUserTable(dataset.TableConfig{Path: filepath.Join(dir, "u.user")}), nil),
		Ratings:  rating.New(nil, dataset.NewRatingTable(dataset.TableConfig{Path: filepath.Join(dir, "u.data"), Delimiter: "tab"})),
	}, engine.WithModelConfig(cfg))
	require.NoError(t, err)
	return e
}

func TestHandle(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		line string
		want string
		quit bool
	}{
		{line: "", want: ""},
		{line: "discord:1 recommend Toy Story", want: "not registered"},
		{line: "discord:1 register alice", want: "Registered alice as user 1."},
		{line: "discord:2 register alice", want: "already registered"},
		{line: "discord:1 register", want: "Invalid input"},
		{line: "discord:1 rate 4 Toy Story", want: "Saved your rating of 4 for Toy Story (1995)."},
		{line: "discord:1 rate 6 Toy Story", want: "from 1 to 5"},
		{line: "discord:1 rate four Toy Story", want: "from 1 to 5"},
		{line: "discord:1 rate 3 zzzqqq", want: "No item"},
		{line: "discord:1 recommend Toy Story", want: "Predicted rating for Toy Story (1995)"},
		{line: "discord:1 recommend GoldenEye", want: "Not enough rating history"},
		{line: "discord:1 top x", want: "Invalid input"},
		{line: "discord:1 dance", want: "Invalid input"},
		{line: "help", want: "commands"},
		{line: "quit", quit: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			reply, quit := handle(ctx, e, tt.line)
			assert.Equal(t, tt.quit, quit)
			if tt.want == "" {
				assert.Empty(t, reply)
				return
			}
			assert.Contains(t, reply, tt.want)
		})
	}
}

func TestServe(t *testing.T) {
	e := newTestEngine(t)
	in := strings.NewReader(strings.Join([]string{
		"discord:1 register bob",
		"discord:2 register cat",
		"discord:1 rate 5 Toy Story",
		"discord:2 rate 4 GoldenEye",
		"discord:2 top 5",
		"quit",
		"discord:1 rate 1 Four Rooms",
	}, "\n"))
	var out bytes.Buffer

	require.NoError(t, serve(context.Background(), e, in, &out))

	got := out.String()
	assert.Contains(t, got, "Registered cat as user 2.")
	assert.Contains(t, got, "1. Toy Story (1995)")
	assert.NotContains(t, got, "Four Rooms", "lines after quit are ignored")
	assert.Equal(t, 2, e.Ratings().Len())
}
