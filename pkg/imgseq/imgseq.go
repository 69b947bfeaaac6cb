// Package imgseq is a frame source for a sequence of still images, for
// when there is no video file (e.g. frames exported from a camera).
package imgseq

import(
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"github.com/abworrall/motionlab/pkg/lab"
)

// A Frame is one image file in the sequence.
type Frame struct {
	Filename string
	Taken    time.Time // from EXIF DateTimeOriginal; zero if not present
}

// Source yields the frames in order. If one of the args was a YAML
// file, it is loaded into Config.
type Source struct {
	Frames []Frame
	Config *lab.Config

	next   int
	bounds image.Rectangle
}

func NewSource(args ...string) (*Source, error) {
	s := &Source{}
	if err := s.LoadFilesAndDirs(args...); err != nil {
		return nil, err
	}
	s.sort()
	return s, nil
}

func (s *Source)LoadFilesAndDirs(args ...string) error {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := ioutil.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				if err := s.LoadFilesAndDirs(filepath.Join(arg, content.Name())); err != nil {
					return fmt.Errorf("load %s: %v", arg, err)
				}
			}

		default: // is a file
			if err := s.addFile(arg); err != nil {
				return fmt.Errorf("addfile %s: %v", arg, err)
			}
		}
	}

	return nil
}

func (s *Source)addFile(filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {

	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		s.Frames = append(s.Frames, Frame{Filename: filename, Taken: exifTime(filename)})

	case ".yaml":
		cfg, err := lab.LoadConfig(filename)
		if err != nil {
			return fmt.Errorf("Loading %s as config YAML failed: %v", filename, err)
		}
		s.Config = &cfg
		log.Printf("Loaded base configuration from %s\n", filename)
	}

	return nil
}

// exifTime returns the zero time for any file without a usable
// DateTimeOriginal; most PNGs won't have one.
func exifTime(filename string) time.Time {
	reader, err := os.Open(filename)
	if err != nil {
		return time.Time{}
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return time.Time{}
	}
	if tag, err := ex.Get(exif.DateTimeOriginal); err != nil {
		return time.Time{}
	} else if str, err := tag.StringVal(); err != nil {
		return time.Time{}
	} else if t, err := time.Parse("2006:01:02 15:04:05", strings.TrimSpace(str)); err == nil {
		return t
	}
	return time.Time{}
}

// sort orders by capture time when every frame has one, and otherwise by
// filename.
func (s *Source)sort() {
	allTimed := len(s.Frames) > 0
	for _, f := range s.Frames {
		if f.Taken.IsZero() {
			allTimed = false
		}
	}

	sort.SliceStable(s.Frames, func(i, j int) bool {
		if allTimed && !s.Frames[i].Taken.Equal(s.Frames[j].Taken) {
			return s.Frames[i].Taken.Before(s.Frames[j].Taken)
		}
		return s.Frames[i].Filename < s.Frames[j].Filename
	})
}

func (s *Source)Len() int { return len(s.Frames) }

// Next decodes the next frame, converting it to gray. All frames must be
// the same size as the first.
func (s *Source)Next() (*image.Gray, error) {
	if s.next >= len(s.Frames) {
		return nil, io.EOF
	}
	filename := s.Frames[s.next].Filename
	s.next++

	img, err := decode(filename)
	if err != nil {
		return nil, err
	}

	gray := ToGray(img)
	if s.next == 1 {
		s.bounds = gray.Bounds()
	} else if gray.Bounds() != s.bounds {
		return nil, fmt.Errorf("frame '%s' is %v, but the sequence is %v", filename, gray.Bounds(), s.bounds)
	}
	return gray, nil
}

func (s *Source)Close() error { return nil }

func decode(filename string) (image.Image, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":          img, err = png.Decode(reader)
	case ".jpg", ".jpeg": img, err = jpeg.Decode(reader)
	case ".tif", ".tiff": img, err = tiff.Decode(reader)
	default:
		return nil, fmt.Errorf("'%s': unknown image type", filename)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding '%s': %v", filename, err)
	}
	return img, nil
}

// ToGray converts with the BT.601 luma weights (0.299, 0.587, 0.114), as
// OpenCV's BGR2GRAY does. The result always has a zero origin.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	if g, ok := img.(*image.Gray); ok {
		for y:=0; y<b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return out
	}

	for y:=0; y<b.Dy(); y++ {
		for x:=0; x<b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// 16 bit channels, weights scaled by 1000
			lum := (299*uint64(r) + 587*uint64(g) + 114*uint64(bl) + 500) / 1000
			out.SetGray(x, y, color.Gray{uint8(lum >> 8)})
		}
	}
	return out
}
