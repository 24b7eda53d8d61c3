package services

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"path/filepath"
	"strings"
	"sync"

	"musicbox/types"

	"github.com/rs/zerolog/log"
)

// ScanSongs walks root and lazily yields a song for every readable audio
// file. Files are read by a pool of workers, so the order is not stable.
// Files that fail to read are logged and skipped. Stopping the iteration
// early stops the walk.
func (fsvc *fileService) ScanSongs(ctx context.Context, root string) iter.Seq[types.Song] {
	return func(yield func(types.Song) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		paths := make(chan string, fsvc.maxWorkers*4)
		results := make(chan types.Song, fsvc.maxWorkers*4)

		go fsvc.walk(ctx, root, paths)

		var wg sync.WaitGroup
		for i := 0; i < fsvc.maxWorkers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fsvc.worker(ctx, root, paths, results)
			}()
		}

		go func() {
			wg.Wait()
			close(results)
		}()

		for song := range results {
			if !yield(song) {
				return
			}
		}
	}
}

// walk feeds every audio file path under root into paths
func (fsvc *fileService) walk(ctx context.Context, root string, paths chan<- string) {
	defer close(paths)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error accessing path")
			return nil // keep walking
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := SupportedFormats[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		select {
		case paths <- path:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("root", root).Msg("Library walk failed")
	}
}

// worker reads songs until paths is drained or the scan is cancelled
func (fsvc *fileService) worker(ctx context.Context, root string, paths <-chan string, results chan<- types.Song) {
	for path := range paths {
		if ctx.Err() != nil {
			return
		}

		song, err := fsvc.ReadSong(root, path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping audio file")
			continue
		}

		select {
		case results <- song:
		case <-ctx.Done():
			return
		}
	}
}
