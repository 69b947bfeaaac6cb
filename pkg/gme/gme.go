// Package gme does global motion estimation: it summarizes a dense flow
// field by the single homography that best explains it, and turns that
// homography back into a dense field.
package gme

import(
	"errors"
	"fmt"

	"github.com/abworrall/motionlab/pkg/emath"
)

// ErrDegenerate means no homography could be fitted (too few points, or
// the points don't pin one down).
var ErrDegenerate = errors.New("gme: degenerate homography fit")

// Result is what a fit produces. Field has the same size as the input
// flow, and holds the displacement the homography predicts at each pixel.
type Result struct {
	H       emath.Mat3
	Field   emath.FlowField
	Inliers int
	Points  int
}

func (r Result)String() string {
	return fmt.Sprintf("gme[%d/%d inliers, %s]", r.Inliers, r.Points, r.Field)
}

// An Estimator fits a global motion model to a dense flow field.
type Estimator interface {
	EstimateGlobalMotion(flow emath.FlowField) (Result, error)
}

// Params configure the homography fit, and are shared by the native and
// OpenCV estimators.
type Params struct {
	Method          string   // "ransac" or "lstsq"
	ReprojThreshold float64  // max reprojection error (px) for a RANSAC inlier
	MaxIters        int
	Confidence      float64
	SamplePoints    int      // hypotheses are scored against this many points (native only)
	Seed            int64
}

func DefaultParams() Params {
	return Params{
		Method:          "ransac",
		ReprojThreshold: 3.0,
		MaxIters:        2000,
		Confidence:      0.995,
		SamplePoints:    2000,
		Seed:            1,
	}
}

func (p Params)Validate() error {
	switch p.Method {
	case "ransac", "lstsq":
	default:
		return fmt.Errorf("no homography method named '%s'", p.Method)
	}
	if p.Method == "ransac" {
		if p.ReprojThreshold <= 0 {
			return fmt.Errorf("homography reprojthreshold must be positive, got %f", p.ReprojThreshold)
		}
		if p.MaxIters < 1 {
			return fmt.Errorf("homography maxiters must be positive, got %d", p.MaxIters)
		}
		if p.Confidence <= 0 || p.Confidence >= 1 {
			return fmt.Errorf("homography confidence must be in (0,1), got %f", p.Confidence)
		}
	}
	return nil
}

// Center is the point the source coordinates are taken relative to.
func Center(w, h int) emath.Vec2 {
	return emath.Vec2{X: float64(w) / 2.0, Y: float64(h) / 2.0}
}

// Correspondences builds the point pairs to fit: one per pixel, with the
// source at the pixel's position relative to the image center, and the
// destination where the flow moves it to. Row-major order.
func Correspondences(flow emath.FlowField) (src, dst []emath.Vec2) {
	w, h := flow.Dx(), flow.Dy()
	c := Center(w, h)
	src = make([]emath.Vec2, 0, w*h)
	dst = make([]emath.Vec2, 0, w*h)

	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			s := emath.Vec2{X: float64(x), Y: float64(y)}.Sub(c)
			src = append(src, s)
			dst = append(dst, s.Add(flow.Get(x, y)))
		}
	}
	return src, dst
}

// FieldFromProjection is the displacement field 'projected - src', for
// the row-major point lists built by Correspondences.
func FieldFromProjection(w, h int, src, projected []emath.Vec2) (emath.FlowField, error) {
	if len(src) != w*h || len(projected) != w*h {
		return emath.FlowField{}, fmt.Errorf("gme: have %d/%d points for a %dx%d field", len(src), len(projected), w, h)
	}
	field := emath.NewFlowField(w, h)
	for i := range src {
		field.Set(i%w, i/w, projected[i].Sub(src[i]))
	}
	return field, nil
}
