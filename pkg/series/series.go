// Package series records the per-frame metrics of a run, and turns them
// into charts and a summary at the end.
package series

import(
	"errors"
	"fmt"
)

var ErrOutOfOrder = errors.New("frame index not after the previous one")

// A Sample is the set of metrics computed for one analyzed frame.
type Sample struct {
	Frame       int
	MSE0        float64 // previous vs current
	MSE         float64 // compensated vs current
	PSNR0       float64
	PSNR        float64
	Entropy     float64 // of the current frame, bits per pixel
	EntropyE    float64 // of the compensated error image
	GMEResidual float64 // mean |flow - global motion|, pixels
}

// A Recorder holds each metric as its own series, all the same length.
type Recorder struct {
	Frames      []int
	MSE0        []float64
	MSE         []float64
	PSNR0       []float64
	PSNR        []float64
	Entropy     []float64
	EntropyE    []float64
	GMEResidual []float64
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder)Len() int { return len(r.Frames) }

// Append adds the sample to every series. Frame indices must strictly
// increase.
func (r *Recorder)Append(s Sample) error {
	if n := len(r.Frames); n > 0 && s.Frame <= r.Frames[n-1] {
		return fmt.Errorf("append frame %d after %d: %w", s.Frame, r.Frames[n-1], ErrOutOfOrder)
	}
	r.Frames      = append(r.Frames, s.Frame)
	r.MSE0        = append(r.MSE0, s.MSE0)
	r.MSE         = append(r.MSE, s.MSE)
	r.PSNR0       = append(r.PSNR0, s.PSNR0)
	r.PSNR        = append(r.PSNR, s.PSNR)
	r.Entropy     = append(r.Entropy, s.Entropy)
	r.EntropyE    = append(r.EntropyE, s.EntropyE)
	r.GMEResidual = append(r.GMEResidual, s.GMEResidual)
	return nil
}

// At reassembles the i'th sample.
func (r *Recorder)At(i int) Sample {
	return Sample{
		Frame:       r.Frames[i],
		MSE0:        r.MSE0[i],
		MSE:         r.MSE[i],
		PSNR0:       r.PSNR0[i],
		PSNR:        r.PSNR[i],
		Entropy:     r.Entropy[i],
		EntropyE:    r.EntropyE[i],
		GMEResidual: r.GMEResidual[i],
	}
}
