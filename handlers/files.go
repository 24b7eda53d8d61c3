package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"musicbox/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// FileHandler handles library listing and streaming endpoints
type FileHandler struct {
	library     services.Library
	fileService services.FileService
}

// NewFileHandler creates a new file handler
func NewFileHandler(library services.Library, fs services.FileService) *FileHandler {
	return &FileHandler{
		library:     library,
		fileService: fs,
	}
}

// ListSongs returns every song in the library
func (h *FileHandler) ListSongs(c *gin.Context) {
	songs, err := h.library.Songs(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error scanning library")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to scan library",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, songs)
}

// ListAlbums returns the library grouped by album
func (h *FileHandler) ListAlbums(c *gin.Context) {
	albums, err := h.library.Albums(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error scanning library")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to scan library",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, albums)
}

// StreamFile streams an audio file with support for range requests. The
// path is either a song id (absolute path) or relative to the library.
func (h *FileHandler) StreamFile(c *gin.Context) {
	requestedPath := strings.TrimPrefix(c.Param("path"), "/")

	fullPath, err := h.fileService.ResolveStreamPath(h.library.Root(), requestedPath)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrPathOutsideLibrary) || errors.Is(err, services.ErrUnsupportedFormat) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{
			"error":   "path not allowed",
			"details": err.Error(),
		})
		return
	}

	fileInfo, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "file not found",
				"path":  requestedPath,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "file access error",
			"details": err.Error(),
		})
		return
	}

	if fileInfo.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path is a directory, not a file",
		})
		return
	}

	file, err := os.Open(fullPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to open file",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	contentType := h.fileService.GetContentType(fullPath)
	c.Header("Content-Type", contentType)
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")

	if rangeHeader := c.GetHeader("Range"); rangeHeader != "" {
		h.handleRangeRequest(c, file, fileInfo.Size(), rangeHeader)
		return
	}

	c.Header("Content-Length", strconv.FormatInt(fileInfo.Size(), 10))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		log.Debug().Err(err).Str("path", fullPath).Msg("Streaming interrupted")
	}
}

// byteRange is an inclusive span of a file
type byteRange struct {
	start, end int64
}

// parseRange understands a single "bytes=a-b", "bytes=a-" or "bytes=-n"
func parseRange(header string, size int64) (byteRange, bool) {
	ranges, ok := strings.CutPrefix(header, "bytes=")
	if !ok || size <= 0 || strings.Contains(ranges, ",") {
		return byteRange{}, false
	}

	first, last, ok := strings.Cut(strings.TrimSpace(ranges), "-")
	if !ok {
		return byteRange{}, false
	}

	// suffix range: the last n bytes
	if first == "" {
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return byteRange{}, false
		}
		return byteRange{start: max(size-n, 0), end: size - 1}, true
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 || start >= size {
		return byteRange{}, false
	}

	end := size - 1
	if last != "" {
		end, err = strconv.ParseInt(last, 10, 64)
		if err != nil || end < start {
			return byteRange{}, false
		}
		end = min(end, size-1)
	}

	return byteRange{start: start, end: end}, true
}

// handleRangeRequest handles HTTP range requests for efficient seeking
func (h *FileHandler) handleRangeRequest(c *gin.Context, file *os.File, fileSize int64, rangeHeader string) {
	r, ok := parseRange(rangeHeader, fileSize)
	if !ok {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if _, err := file.Seek(r.start, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to seek file",
		})
		return
	}

	contentLength := r.end - r.start + 1
	c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", r.start, r.end, fileSize))
	c.Status(http.StatusPartialContent)

	if _, err := io.CopyN(c.Writer, file, contentLength); err != nil {
		log.Debug().Err(err).Int64("start", r.start).Int64("end", r.end).Msg("Range streaming interrupted")
	}
}
