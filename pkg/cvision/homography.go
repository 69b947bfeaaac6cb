//go:build withcv
// +build withcv

package cvision

import(
	"fmt"

	"gocv.io/x/gocv"

	"github.com/abworrall/motionlab/pkg/emath"
	"github.com/abworrall/motionlab/pkg/gme"
)

// Homography fits the global motion with cv::findHomography, over every
// pixel of the flow.
type Homography struct {
	gme.Params
}

func NewHomography(p gme.Params) (*Homography, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Homography{Params: p}, nil
}

func (h *Homography)method() gocv.HomographyMethod {
	if h.Method == "lstsq" {
		return gocv.HomograpyMethodAllPoints
	}
	return gocv.HomograpyMethodRANSAC
}

func (h *Homography)EstimateGlobalMotion(flow emath.FlowField) (gme.Result, error) {
	src, dst := gme.Correspondences(flow)
	if len(src) < 4 {
		return gme.Result{}, fmt.Errorf("%d points: %w", len(src), gme.ErrDegenerate)
	}

	srcMat, err := pointsMat(src)
	if err != nil {
		return gme.Result{}, err
	}
	defer srcMat.Close()
	dstMat, err := pointsMat(dst)
	if err != nil {
		return gme.Result{}, err
	}
	defer dstMat.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	hMat := gocv.FindHomography(srcMat, &dstMat, h.method(), h.ReprojThreshold, &mask, h.MaxIters, h.Confidence)
	defer hMat.Close()
	if hMat.Empty() {
		return gme.Result{}, fmt.Errorf("findHomography: %w", gme.ErrDegenerate)
	}
	H := matToMat3(hMat)

	projMat := gocv.NewMat()
	defer projMat.Close()
	gocv.PerspectiveTransform(srcMat, &projMat, hMat)
	projected, err := matToPoints(projMat)
	if err != nil {
		return gme.Result{}, fmt.Errorf("perspectiveTransform: %v", err)
	}

	field, err := gme.FieldFromProjection(flow.Dx(), flow.Dy(), src, projected)
	if err != nil {
		return gme.Result{}, err
	}

	inliers := len(src)
	if !mask.Empty() {
		inliers = gocv.CountNonZero(mask)
	}
	return gme.Result{H: H, Field: field, Inliers: inliers, Points: len(src)}, nil
}
