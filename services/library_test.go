package services

import (
	"context"
	"path/filepath"
	"testing"

	"musicbox/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupAlbums(t *testing.T) {
	songs := []types.Song{
		{Title: "B3", Album: "Beta", Artist: "Second", TrackNumber: 3, CoverURL: "data:beta"},
		{Title: "A2", Album: "Alpha", Artist: "First", TrackNumber: 2},
		{Title: "B1", Album: "Beta", Artist: "Other", TrackNumber: 1},
		{Title: "A1", Album: "Alpha", Artist: "First", TrackNumber: 1},
		{Title: "B0", Album: "Beta", Artist: "Second", TrackNumber: 0},
	}

	albums := GroupAlbums(songs)
	require.Len(t, albums, 2)

	// first-seen order, not alphabetical
	assert.Equal(t, "Beta", albums[0].Title)
	assert.Equal(t, "Alpha", albums[1].Title)

	// artist and cover come from the first song seen, before sorting
	assert.Equal(t, "Second", albums[0].Artist)
	assert.Equal(t, "data:beta", albums[0].Cover)

	titles := func(a types.Album) []string {
		out := make([]string, 0, len(a.Songs))
		for _, s := range a.Songs {
			out = append(out, s.Title)
		}
		return out
	}
	assert.Equal(t, []string{"B0", "B1", "B3"}, titles(albums[0]))
	assert.Equal(t, []string{"A1", "A2"}, titles(albums[1]))
}

func TestGroupAlbumsEmpty(t *testing.T) {
	albums := GroupAlbums(nil)
	assert.NotNil(t, albums)
	assert.Empty(t, albums)
}

func TestLibrarySongsAndSearch(t *testing.T) {
	root := writeLibrary(t, map[string]string{
		"Radiohead/OK Computer/01 - Airbag.mp3":        "x",
		"Radiohead/OK Computer/02 - Paranoid.mp3":      "xx",
		"Massive Attack/Mezzanine/01 - Angel.flac":     "xxx",
		"Massive Attack/Mezzanine/02 - Risingson.flac": "bad",
	})
	lib := NewLibrary(newTestFileService(), root)
	ctx := context.Background()

	songs, err := lib.Songs(ctx)
	require.NoError(t, err)
	require.Len(t, songs, 3)
	for i := 1; i < len(songs); i++ {
		assert.Less(t, songs[i-1].Path, songs[i].Path, "songs are ordered by path")
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Angel", "Airbag", "Paranoid"}},
		{"radiohead", []string{"Airbag", "Paranoid"}},
		{"MEZZ", []string{"Angel"}},
		{"para", []string{"Paranoid"}},
		{"nothing here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			found, err := lib.Search(ctx, tt.query)
			require.NoError(t, err)

			var titles []string
			for _, s := range found {
				titles = append(titles, s.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}

	albums, err := lib.Albums(ctx)
	require.NoError(t, err)
	require.Len(t, albums, 2)
	assert.Equal(t, "Mezzanine", albums[0].Title)
	assert.Equal(t, "Massive Attack", albums[0].Artist)
}

func TestLibrarySetRoot(t *testing.T) {
	lib := NewLibrary(newTestFileService(), t.TempDir())

	assert.Error(t, lib.SetRoot(""))
	assert.Error(t, lib.SetRoot(filepath.Join(t.TempDir(), "missing")))

	other := t.TempDir()
	require.NoError(t, lib.SetRoot(other))
	assert.Equal(t, other, lib.Root())

	songs, err := lib.Songs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestLibraryMissingRoot(t *testing.T) {
	lib := NewLibrary(newTestFileService(), filepath.Join(t.TempDir(), "gone"))

	_, err := lib.Songs(context.Background())
	assert.Error(t, err)
}

func TestPreferFlac(t *testing.T) {
	songs := []types.Song{
		{Path: "/m/A/Album/Song1.flac", Format: "flac"},
		{Path: "/m/A/Album/Song1.mp3", Format: "mp3"},
		{Path: "/m/A/Album/Song2.mp3", Format: "mp3"},
		{Path: "/m/A/Album/Song3.flac", Format: "flac"},
		{Path: "/m/B/Album/Song1.mp3", Format: "mp3"},
	}

	result := PreferFlac(songs)

	paths := make([]string, 0, len(result))
	for _, s := range result {
		paths = append(paths, s.Path)
	}
	assert.Equal(t, []string{
		"/m/A/Album/Song1.flac",
		"/m/A/Album/Song2.mp3",
		"/m/A/Album/Song3.flac",
		"/m/B/Album/Song1.mp3",
	}, paths)
}
