//go:build withcv
// +build withcv

package cvision

import(
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/abworrall/motionlab/pkg/emath"
)

// grayToMat copies the image into a new CV_8UC1 Mat; the caller closes it.
func grayToMat(img *image.Gray) (gocv.Mat, error) {
	b := img.Bounds()
	if b.Min != (image.Point{}) || img.Stride != b.Dx() {
		// Repack sub-images, so the Mat sees tight rows
		packed := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y:=0; y<b.Dy(); y++ {
			copy(packed.Pix[y*packed.Stride:(y+1)*packed.Stride], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		img = packed
	}
	return gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, img.Pix)
}

func matToGray(m gocv.Mat) (*image.Gray, error) {
	if m.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("mat type %v is not CV_8UC1", m.Type())
	}
	w, h := m.Cols(), m.Rows()
	pix := m.ToBytes()
	if len(pix) != w*h {
		return nil, fmt.Errorf("mat %dx%d has %d bytes", w, h, len(pix))
	}
	return &image.Gray{Pix: pix, Stride: w, Rect: image.Rect(0, 0, w, h)}, nil
}

// float32Mat builds a Mat from little-endian float32 values.
func float32Mat(rows, cols int, mt gocv.MatType, vals []float32) (gocv.Mat, error) {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return gocv.NewMatFromBytes(rows, cols, mt, buf)
}

// pointsMat packs points into an Nx1 CV_32FC2 Mat, the layout
// FindHomography and PerspectiveTransform want.
func pointsMat(pts []emath.Vec2) (gocv.Mat, error) {
	vals := make([]float32, 2*len(pts))
	for i, p := range pts {
		vals[2*i], vals[2*i+1] = float32(p.X), float32(p.Y)
	}
	return float32Mat(len(pts), 1, gocv.MatTypeCV32FC2, vals)
}

func matToPoints(m gocv.Mat) ([]emath.Vec2, error) {
	vals, err := m.DataPtrFloat32()
	if err != nil {
		return nil, err
	}
	pts := make([]emath.Vec2, len(vals)/2)
	for i := range pts {
		pts[i] = emath.Vec2{X: float64(vals[2*i]), Y: float64(vals[2*i+1])}
	}
	return pts, nil
}

// matToFlow reads a CV_32FC2 flow Mat.
func matToFlow(m gocv.Mat) (emath.FlowField, error) {
	if m.Type() != gocv.MatTypeCV32FC2 {
		return emath.FlowField{}, fmt.Errorf("flow mat type %v is not CV_32FC2", m.Type())
	}
	vals, err := m.DataPtrFloat32()
	if err != nil {
		return emath.FlowField{}, err
	}
	ff := emath.NewFlowField(m.Cols(), m.Rows())
	out := ff.Values()
	if len(vals) != len(out) {
		return emath.FlowField{}, fmt.Errorf("flow mat %dx%d has %d values", m.Cols(), m.Rows(), len(vals))
	}
	for i, v := range vals {
		out[i] = float64(v)
	}
	return ff, nil
}

func matToMat3(m gocv.Mat) emath.Mat3 {
	H := emath.Mat3{}
	for r:=0; r<3; r++ {
		for c:=0; c<3; c++ {
			H[3*r+c] = m.GetDoubleAt(r, c)
		}
	}
	return H
}
