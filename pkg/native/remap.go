package native

import(
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/abworrall/motionlab/pkg/emath"
)

// Remapper predicts the current frame by sampling the past frame where
// the flow says each pixel came from.
type Remapper struct{}

func (Remapper)Compensate(prev *image.Gray, flow emath.FlowField) (*image.Gray, error) {
	b := prev.Bounds()
	if b.Dx() != flow.Dx() || b.Dy() != flow.Dy() {
		return nil, fmt.Errorf("remap: frame %s but flow is %dx%d", b, flow.Dx(), flow.Dy())
	}
	return Remap(prev, flow), nil
}

// Remap samples prev at (x+dx, y+dy) for every pixel, with bilinear
// interpolation. Samples off the edge of prev read as 0.
func Remap(prev *image.Gray, flow emath.FlowField) *image.Gray {
	w, h := flow.Dx(), flow.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	at := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return float64(prev.Pix[y*prev.Stride + x])
	}

	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			d := flow.Get(x, y)
			sx, sy := float64(x) + d.X, float64(y) + d.Y
			x0, y0 := math.Floor(sx), math.Floor(sy)
			ax, ay := sx - x0, sy - y0
			ix, iy := int(x0), int(y0)

			v := (1-ax)*(1-ay)*at(ix,   iy) +
				ax*(1-ay)*at(ix+1, iy) +
				(1-ax)*ay*at(ix,   iy+1) +
				ax*ay*at(ix+1, iy+1)

			out.SetGray(x, y, color.Gray{uint8(emath.Round(emath.Clamp(v, 0, 255)))})
		}
	}
	return out
}
