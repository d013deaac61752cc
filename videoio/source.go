// Package videoio provides the frame sources and sinks of the capture tool.
package videoio

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/esimov/mugshot"
	"github.com/esimov/mugshot/utils"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DirSource replays the images of a directory in lexical order.
type DirSource struct {
	files []string
}

var _ mugshot.FrameSource = (*DirSource)(nil)

// NewDirSource lists the image files of dir. Files which are not images are skipped.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read the frames directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		ctype, err := utils.DetectContentType(path)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(ctype, "image/") {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files found in %s", dir)
	}
	sort.Strings(files)

	return &DirSource{files: files}, nil
}

// Frame decodes the i-th image. It returns io.EOF past the last file.
func (s *DirSource) Frame(i int) (image.Image, error) {
	if i < 0 || i >= len(s.files) {
		return nil, io.EOF
	}
	return decodeImg(s.files[i])
}

// Count returns the number of frames.
func (s *DirSource) Count() int { return len(s.files) }

// IsRandomAccess reports true, any frame can be read at any time.
func (s *DirSource) IsRandomAccess() bool { return true }

// Files returns the frame file names in replay order.
func (s *DirSource) Files() []string { return s.files }

// decodeImg decodes an image file to type image.Image
func decodeImg(src string) (image.Image, error) {
	file, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("could not open the frame file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("could not decode the frame file %s: %w", src, err)
	}
	return img, nil
}
