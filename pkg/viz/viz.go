// Package viz renders the things the lab wants to look at: flow fields
// as arrow grids, residuals as heatmaps, and writes images out to disk.
package viz

import(
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/abworrall/motionlab/pkg/emath"
)

// DrawFlow draws the flow on top of the image, as a sparse grid of green
// segments: one every `step` pixels starting at step/2, each running from
// the pixel to where its displacement points, with a dot on the pixel.
func DrawFlow(img *image.Gray, flow emath.FlowField, step int) image.Image {
	dc := gg.NewContextForImage(img)
	if step < 1 {
		return dc.Image()
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if flow.Dx() < w { w = flow.Dx() }
	if flow.Dy() < h { h = flow.Dy() }

	dc.SetRGB(0, 1, 0)
	dc.SetLineWidth(1)
	for y:=step/2; y<h; y+=step {
		for x:=step/2; x<w; x+=step {
			d := flow.Get(x, y)
			x2 := float64(emath.Round(float64(x) + d.X))
			y2 := float64(emath.Round(float64(y) + d.Y))
			dc.DrawLine(float64(x), float64(y), x2, y2)
			dc.Stroke()
			dc.DrawCircle(float64(x), float64(y), 1)
			dc.Fill()
		}
	}

	return dc.Image()
}

var(
	heatCold = colorful.Color{R: 0.05, G: 0.1, B: 0.6}
	heatHot  = colorful.Color{R: 1.0, G: 0.2, B: 0.1}
)

// Heatmap renders a scalar grid from cold (the smallest value) to hot (the
// largest), blending in HCL space so the midrange stays readable.
func Heatmap(grid emath.FloatGrid) *image.RGBA {
	min, max := grid.MinMax()
	img := image.NewRGBA(image.Rect(0, 0, grid.Dx(), grid.Dy()))

	// Precompute a palette, blending per pixel is slow
	palette := [256]color.RGBA{}
	for i := range palette {
		r, g, b := heatCold.BlendHcl(heatHot, float64(i)/255.0).Clamped().RGB255()
		palette[i] = color.RGBA{r, g, b, 0xff}
	}

	for y:=0; y<grid.Dy(); y++ {
		for x:=0; x<grid.Dx(); x++ {
			v := 0.0
			if max > min {
				v = (grid.Get(x,y) - min) / (max - min)
			}
			img.SetRGBA(x, y, palette[int(emath.Clamp(v*255.0, 0, 255))])
		}
	}
	return img
}

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}
