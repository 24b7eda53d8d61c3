package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"musicbox/types"

	"github.com/samber/lo"
)

// Library interface defines queries over the music directory. Every query
// reads the filesystem again; nothing is cached.
type Library interface {
	Root() string
	SetRoot(root string) error
	Songs(ctx context.Context) ([]types.Song, error)
	Albums(ctx context.Context) ([]types.Album, error)
	Search(ctx context.Context, query string) ([]types.Song, error)
}

// library implements the Library interface
type library struct {
	files FileService
	mu    sync.RWMutex
	root  string
}

// NewLibrary creates a library rooted at root
func NewLibrary(files FileService, root string) Library {
	return &library{
		files: files,
		root:  root,
	}
}

// Root returns the current library directory
func (l *library) Root() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.root
}

// SetRoot points the library at another directory
func (l *library) SetRoot(root string) error {
	abs, err := ValidateLibraryRoot(root)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.root = abs
	l.mu.Unlock()
	return nil
}

// Songs returns every readable song, ordered by path. When a track exists
// as both FLAC and MP3 only the FLAC is listed.
func (l *library) Songs(ctx context.Context) ([]types.Song, error) {
	root := l.Root()
	if _, err := ValidateLibraryRoot(root); err != nil {
		return nil, err
	}

	songs := make([]types.Song, 0)
	for song := range l.files.ScanSongs(ctx, root) {
		songs = append(songs, song)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(songs, func(i, j int) bool {
		return songs[i].Path < songs[j].Path
	})
	return PreferFlac(songs), nil
}

// PreferFlac drops an MP3 when a FLAC of the same track sits next to it
func PreferFlac(songs []types.Song) []types.Song {
	trackKey := func(s types.Song) string {
		return strings.TrimSuffix(s.Path, filepath.Ext(s.Path))
	}

	flacs := make(map[string]bool)
	for _, s := range songs {
		if s.Format == "flac" {
			flacs[trackKey(s)] = true
		}
	}

	return lo.Filter(songs, func(s types.Song, _ int) bool {
		return s.Format == "flac" || !flacs[trackKey(s)]
	})
}

// Albums groups the library by album
func (l *library) Albums(ctx context.Context) ([]types.Album, error) {
	songs, err := l.Songs(ctx)
	if err != nil {
		return nil, err
	}
	return GroupAlbums(songs), nil
}

// Search returns the songs whose title, artist or album contain query
func (l *library) Search(ctx context.Context, query string) ([]types.Song, error) {
	songs, err := l.Songs(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return songs, nil
	}

	return lo.Filter(songs, func(s types.Song, _ int) bool {
		return strings.Contains(strings.ToLower(s.Title), needle) ||
			strings.Contains(strings.ToLower(s.Artist), needle) ||
			strings.Contains(strings.ToLower(s.Album), needle)
	}), nil
}

// GroupAlbums groups songs by album name. Albums keep the order in which
// they are first seen; the first song of an album supplies its artist and
// cover. Songs within an album are sorted by track number.
func GroupAlbums(songs []types.Song) []types.Album {
	names := lo.Uniq(lo.Map(songs, func(s types.Song, _ int) string {
		return s.Album
	}))
	groups := lo.GroupBy(songs, func(s types.Song) string {
		return s.Album
	})

	albums := make([]types.Album, 0, len(names))
	for _, name := range names {
		tracks := groups[name]
		first := tracks[0]
		sort.SliceStable(tracks, func(i, j int) bool {
			return tracks[i].TrackNumber < tracks[j].TrackNumber
		})

		albums = append(albums, types.Album{
			Title:  name,
			Artist: first.Artist,
			Cover:  first.CoverURL,
			Songs:  tracks,
		})
	}
	return albums
}

// ValidateLibraryRoot checks that root is an existing directory and returns
// its absolute form
func ValidateLibraryRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("music directory is not set")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve music directory %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("music directory %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("music directory %s is not a directory", abs)
	}
	return abs, nil
}
