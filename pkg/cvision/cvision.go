// Package cvision wraps the OpenCV (gocv) implementations of the lab's
// collaborators: video decoding, Farneback optical flow, homography
// fitting, remapping and the HighGUI windows.
//
// OpenCV is only linked when building with the withcv tag. Without it the
// constructors return ErrNoOpenCV, and the native backend must be used.
package cvision

import(
	"errors"

	"github.com/abworrall/motionlab/pkg/gme"
	"github.com/abworrall/motionlab/pkg/lab"
)

var ErrNoOpenCV = errors.New("built without OpenCV support (rebuild with -tags withcv)")

// Backend bundles the per-frame collaborators.
type Backend struct {
	Flow        lab.FlowEstimator
	Compensator lab.Compensator
	GME         gme.Estimator
}
