//go:build withcv
// +build withcv

package cvision

import(
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/abworrall/motionlab/pkg/emath"
	"github.com/abworrall/motionlab/pkg/lab"
)

// cv::OPTFLOW_FARNEBACK_GAUSSIAN
const optflowFarnebackGaussian = 256

type Farneback struct {
	lab.FarnebackParams
}

func NewFarneback(p lab.FarnebackParams) *Farneback {
	return &Farneback{FarnebackParams: p}
}

// Flow runs Farneback with the frames swapped (curr first), so the result
// points from the current frame back into the previous one.
func (f *Farneback)Flow(prev, curr *image.Gray) (emath.FlowField, error) {
	if prev.Bounds().Size() != curr.Bounds().Size() {
		return emath.FlowField{}, fmt.Errorf("farneback: frame sizes differ, %v vs %v", prev.Bounds(), curr.Bounds())
	}

	prevMat, err := grayToMat(prev)
	if err != nil {
		return emath.FlowField{}, fmt.Errorf("farneback: %v", err)
	}
	defer prevMat.Close()
	currMat, err := grayToMat(curr)
	if err != nil {
		return emath.FlowField{}, fmt.Errorf("farneback: %v", err)
	}
	defer currMat.Close()

	flow := gocv.NewMat()
	defer flow.Close()

	flags := 0
	if f.Gaussian {
		flags = optflowFarnebackGaussian
	}
	gocv.CalcOpticalFlowFarneback(currMat, prevMat, &flow,
		f.PyrScale, f.Levels, f.WinSize, f.Iterations, f.PolyN, f.PolySigma, flags)

	return matToFlow(flow)
}
