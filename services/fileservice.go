package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"musicbox/types"

	"github.com/dhowden/tag"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
	ErrUnreadable         = errors.New("audio file unreadable")
	ErrNoAudio            = errors.New("no decodable audio stream")
	ErrPathOutsideLibrary = errors.New("path is outside the music library")
)

const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// SupportedFormats maps lower-case file extensions to format names
var SupportedFormats = map[string]string{
	".mp3":  "mp3",
	".flac": "flac",
}

var trackPrefix = regexp.MustCompile(`^(\d+)[\.\-\s]+(.+)`)

// FileService interface defines methods for reading the music library
type FileService interface {
	ScanSongs(ctx context.Context, root string) iter.Seq[types.Song]
	ReadSong(root, filePath string) (types.Song, error)
	ResolveStreamPath(root, requested string) (string, error)
	GetContentType(filePath string) string
}

// durationProbe measures the playing time of an audio stream
type durationProbe func(r io.ReadSeeker, format string) (time.Duration, error)

// fileService implements the FileService interface
type fileService struct {
	maxWorkers int
	probe      durationProbe
}

// NewFileService creates a new file service reading up to maxWorkers files at once
func NewFileService(maxWorkers int) FileService {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &fileService{
		maxWorkers: maxWorkers,
		probe:      decodeDuration,
	}
}

// ReadSong builds a song record from one audio file. Tags win; missing
// fields fall back to what the path says.
func (fsvc *fileService) ReadSong(root, filePath string) (types.Song, error) {
	format, ok := SupportedFormats[strings.ToLower(filepath.Ext(filePath))]
	if !ok {
		return types.Song{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filePath))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return types.Song{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer file.Close()

	duration, err := fsvc.probe(file, format)
	if err != nil {
		return types.Song{}, fmt.Errorf("%w: %v", ErrNoAudio, err)
	}

	song := types.Song{
		ID:       filePath,
		Path:     filePath,
		Format:   format,
		Duration: int(duration / time.Second),
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return types.Song{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	meta, err := tag.ReadFrom(file)
	if err != nil {
		if !errors.Is(err, tag.ErrNoTagsFound) {
			log.Debug().Err(err).Str("path", filePath).Msg("Could not parse tags")
		}
	} else {
		song.Title = strings.TrimSpace(meta.Title())
		song.Artist = strings.TrimSpace(meta.Artist())
		song.Album = strings.TrimSpace(meta.Album())
		song.TrackNumber, _ = meta.Track()
		song.CoverURL = coverDataURI(meta.Picture())
	}

	relative, err := filepath.Rel(root, filePath)
	if err != nil {
		relative = filepath.Base(filePath)
	}
	fallback := extractMetadataFromPath(relative)

	if song.Title == "" {
		song.Title = fallback.Title
	}
	if song.Artist == "" {
		song.Artist = fallback.Artist
	}
	if song.Album == "" {
		song.Album = fallback.Album
	}
	if song.TrackNumber == 0 {
		song.TrackNumber = fallback.TrackNumber
	}

	return song, nil
}

// coverDataURI encodes an embedded picture as a data: URI
func coverDataURI(pic *tag.Picture) string {
	if pic == nil || len(pic.Data) == 0 {
		return ""
	}
	mime := pic.MIMEType
	if mime == "" || !strings.Contains(mime, "/") {
		mime = mimetype.Detect(pic.Data).String()
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(pic.Data))
}

// extractMetadataFromPath derives metadata from a library-relative path laid
// out as Artist/Album/NN - Title.ext
func extractMetadataFromPath(relativePath string) types.Song {
	song := types.Song{
		Artist: UnknownArtist,
		Album:  UnknownAlbum,
	}

	parts := strings.Split(filepath.ToSlash(relativePath), "/")
	filename := parts[len(parts)-1]

	if len(parts) >= 3 {
		song.Artist = parts[len(parts)-3]
	}
	if len(parts) >= 2 {
		song.Album = parts[len(parts)-2]
	}

	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	if matches := trackPrefix.FindStringSubmatch(title); len(matches) > 2 {
		title = matches[2]
		if trackNum, err := strconv.Atoi(matches[1]); err == nil {
			song.TrackNumber = trackNum
		}
	}
	song.Title = title

	return song
}

// decodeDuration counts the samples of the stream with the matching beep decoder
func decodeDuration(r io.ReadSeeker, format string) (time.Duration, error) {
	var (
		streamer beep.StreamSeekCloser
		f        beep.Format
		err      error
	)

	switch format {
	case "mp3":
		streamer, f, err = mp3.Decode(nopCloser{r})
	case "flac":
		streamer, f, err = flac.Decode(r)
	default:
		return 0, ErrUnsupportedFormat
	}
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	if streamer.Len() <= 0 {
		return 0, nil
	}
	return f.SampleRate.D(streamer.Len()), nil
}

// nopCloser keeps the decoder from closing the file we still need for tags
type nopCloser struct {
	io.ReadSeeker
}

func (nopCloser) Close() error { return nil }

// GetContentType returns the appropriate MIME type for an audio file
func (fsvc *fileService) GetContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".flac":
		return "audio/flac"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// ResolveStreamPath turns a song id (absolute path) or a library-relative
// path into an absolute path inside root
func (fsvc *fileService) ResolveStreamPath(root, requested string) (string, error) {
	if strings.TrimSpace(requested) == "" {
		return "", fmt.Errorf("empty path not allowed")
	}

	if _, ok := SupportedFormats[strings.ToLower(filepath.Ext(requested))]; !ok {
		return "", fmt.Errorf("%w: only .flac and .mp3 files can be streamed", ErrUnsupportedFormat)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve library root: %w", err)
	}

	target := filepath.FromSlash(requested)
	if !filepath.IsAbs(target) {
		target = filepath.Join(absRoot, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(absRoot, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathOutsideLibrary
	}

	return target, nil
}
