//go:build withcv
// +build withcv

package cvision

import(
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/abworrall/motionlab/pkg/emath"
)

// Remapper does motion compensation with cv::remap: the output at x is
// prev sampled (bilinear) at x + flow(x), black outside the frame.
type Remapper struct{}

func (Remapper)Compensate(prev *image.Gray, flow emath.FlowField) (*image.Gray, error) {
	b := prev.Bounds()
	w, h := b.Dx(), b.Dy()
	if flow.Dx() != w || flow.Dy() != h {
		return nil, fmt.Errorf("remap: flow is %dx%d, frame is %dx%d", flow.Dx(), flow.Dy(), w, h)
	}

	mapX := make([]float32, w*h)
	mapY := make([]float32, w*h)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			d := flow.Get(x, y)
			mapX[y*w+x] = float32(float64(x) + d.X)
			mapY[y*w+x] = float32(float64(y) + d.Y)
		}
	}

	src, err := grayToMat(prev)
	if err != nil {
		return nil, fmt.Errorf("remap: %v", err)
	}
	defer src.Close()
	map1, err := float32Mat(h, w, gocv.MatTypeCV32FC1, mapX)
	if err != nil {
		return nil, fmt.Errorf("remap: %v", err)
	}
	defer map1.Close()
	map2, err := float32Mat(h, w, gocv.MatTypeCV32FC1, mapY)
	if err != nil {
		return nil, fmt.Errorf("remap: %v", err)
	}
	defer map2.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Remap(src, &dst, &map1, &map2, gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{})

	return matToGray(dst)
}
