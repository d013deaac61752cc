package videoio

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/esimov/mugshot"
	"golang.org/x/image/bmp"
)

// NopSink discards every frame.
type NopSink struct{}

// Show implements mugshot.FrameSink.
func (NopSink) Show(image.Image) bool { return true }

// FileSink writes the viewfinder frames into a directory, one numbered file per frame.
// It stops accepting frames after the first write error, which Err reports.
type FileSink struct {
	dir     string
	ext     string
	quality int

	mu  sync.Mutex
	n   int
	err error
}

var _ mugshot.FrameSink = (*FileSink)(nil)

// NewFileSink creates dir if needed. The ext argument selects the encoder.
func NewFileSink(dir, ext string, quality int) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create the preview directory: %w", err)
	}
	if ext == "" {
		ext = ".jpg"
	}
	if !Supported(ext) {
		return nil, fmt.Errorf("unsupported image format %q", ext)
	}
	return &FileSink{dir: dir, ext: ext, quality: quality}, nil
}

// Show implements mugshot.FrameSink.
func (s *FileSink) Show(img image.Image) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return false
	}

	path := filepath.Join(s.dir, fmt.Sprintf("frame-%05d%s", s.n, s.ext))
	s.n++

	f, err := os.Create(path)
	if err != nil {
		s.err = err
		return false
	}
	if err := Encode(f, img, s.ext, s.quality); err != nil {
		f.Close()
		s.err = err
		return false
	}
	if err := f.Close(); err != nil {
		s.err = err
		return false
	}
	return true
}

// Count returns the number of frames written.
func (s *FileSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Err returns the error which stopped the sink.
func (s *FileSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Supported reports whether ext names an output format Encode can write.
func Supported(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp":
		return true
	}
	return false
}

// Encode writes img to w in the format selected by ext. An empty ext selects JPEG.
func Encode(w io.Writer, img image.Image, ext string, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	switch ext {
	case "", ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	}
	return errors.New("unsupported image format")
}
