package viz

import(
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/motionlab/pkg/emath"
)

// GridImage presents a FloatGrid as a gray HDR image, so the unscaled
// values can be looked at in an HDR viewer. Implements hdr.Image.
type GridImage struct {
	emath.FloatGrid
}

// Implement image.Image
func (gi GridImage)ColorModel() color.Model       { return hdrcolor.RGBModel }
func (gi GridImage)Bounds() image.Rectangle       { return image.Rect(0, 0, gi.Dx(), gi.Dy()) }
func (gi GridImage)At(x, y int) color.Color       { return gi.HDRAt(x,y) }

// Implement hdr.Image
func (gi GridImage)Size() int                     { return gi.Dx() * gi.Dy() }
func (gi GridImage)HDRAt(x, y int) hdrcolor.Color {
	v := gi.Get(x, y)
	if v < 0 { v = -v }
	return hdrcolor.RGB{R: v, G: v, B: v}
}

// WriteHDR dumps the grid as a Radiance RGBE file. Negative values are
// written as their magnitude.
func WriteHDR(grid emath.FloatGrid, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("WriteHDR, open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		if err := rgbe.Encode(writer, GridImage{grid}); err != nil {
			return fmt.Errorf("WriteHDR, encoding '%s': %v", filename, err)
		}
		return nil
	}
}
