package viz

import(
	"fmt"
	"image"
	"log"
	"path/filepath"

	"golang.org/x/image/draw"
)

// NullDisplay shows nothing.
type NullDisplay struct{}

func (NullDisplay)Show(name string, img image.Image) {}
func (NullDisplay)EndFrame(i int)                   {}

// DumpDisplay writes every shown image to <Dir>/<name>-<frame>.png,
// when the frame ends. Images wider than MaxWidth (if set) are scaled
// down first. Write errors are logged, and the first one is kept in Err.
type DumpDisplay struct {
	Dir      string
	MaxWidth int
	Err      error
	Written  int

	names   []string
	pending map[string]image.Image
}

func NewDumpDisplay(dir string) *DumpDisplay {
	return &DumpDisplay{Dir: dir, pending: map[string]image.Image{}}
}

func (dd *DumpDisplay)Show(name string, img image.Image) {
	if dd.pending == nil {
		dd.pending = map[string]image.Image{}
	}
	if _, exists := dd.pending[name]; !exists {
		dd.names = append(dd.names, name)
	}
	dd.pending[name] = img
}

func (dd *DumpDisplay)EndFrame(i int) {
	for _, name := range dd.names {
		filename := filepath.Join(dd.Dir, fmt.Sprintf("%s-%05d.png", name, i))
		if err := WritePNG(Shrink(dd.pending[name], dd.MaxWidth), filename); err != nil {
			log.Printf("dump: %v\n", err)
			if dd.Err == nil {
				dd.Err = err
			}
			continue
		}
		dd.Written++
	}
	dd.names = dd.names[:0]
	dd.pending = map[string]image.Image{}
}

// MultiDisplay fans each call out to all of its displays.
type MultiDisplay []interface{
	Show(name string, img image.Image)
	EndFrame(i int)
}

func (md MultiDisplay)Show(name string, img image.Image) {
	for _, d := range md {
		d.Show(name, img)
	}
}

func (md MultiDisplay)EndFrame(i int) {
	for _, d := range md {
		d.EndFrame(i)
	}
}

// Shrink scales the image down to maxWidth, keeping the aspect ratio. It
// is returned as-is if it already fits, or if maxWidth is zero.
func Shrink(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 { h = 1 }
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
