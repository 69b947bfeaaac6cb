//go:build withcv
// +build withcv

package cvision

import(
	"github.com/abworrall/motionlab/pkg/lab"
)

const Available = true

func NewBackend(cfg lab.Config) (Backend, error) {
	est, err := NewHomography(cfg.Homography)
	if err != nil {
		return Backend{}, err
	}
	return Backend{
		Flow:        NewFarneback(cfg.Farneback),
		Compensator: Remapper{},
		GME:         est,
	}, nil
}
