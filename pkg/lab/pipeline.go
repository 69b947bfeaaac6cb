// Package lab runs the frame-by-frame analysis: it pairs each frame with
// the one DeltaT frames earlier, estimates motion between them, and
// records how well motion compensation and global motion estimation do.
package lab

import(
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"path/filepath"

	"github.com/abworrall/motionlab/pkg/emath"
	"github.com/abworrall/motionlab/pkg/framebuf"
	"github.com/abworrall/motionlab/pkg/gme"
	"github.com/abworrall/motionlab/pkg/metrics"
	"github.com/abworrall/motionlab/pkg/series"
	"github.com/abworrall/motionlab/pkg/viz"
)

// A FrameSource yields grayscale frames in order, and io.EOF once they
// run out.
type FrameSource interface {
	Next() (*image.Gray, error)
	Close() error
}

// A FlowEstimator returns the dense field such that prev(x + flow(x))
// approximates curr(x).
type FlowEstimator interface {
	Flow(prev, curr *image.Gray) (emath.FlowField, error)
}

// A Compensator warps prev by the flow, to predict the current frame.
type Compensator interface {
	Compensate(prev *image.Gray, flow emath.FlowField) (*image.Gray, error)
}

// A Display puts images in front of a human. EndFrame is called once all
// the images for a frame have been shown.
type Display interface {
	Show(name string, img image.Image)
	EndFrame(i int)
}

type State int

const(
	Filling State = iota // waiting for DeltaT frames to arrive
	Steady               // every new frame gets analyzed
	Done                 // the source ran dry
)

func (s State)String() string {
	switch s {
	case Filling: return "filling"
	case Steady:  return "steady"
	case Done:    return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FrameResult is everything computed for one pair of frames.
type FrameResult struct {
	series.Sample

	Flow        emath.FlowField
	Compensated *image.Gray
	ImErr0      *image.Gray  // prev vs curr
	ImErr       *image.Gray  // compensated vs curr
	GME         gme.Result
	GMEError    emath.FloatGrid
	Residual    metrics.Residual
}

// Pipeline holds the collaborators for the analysis. A nil display is
// replaced by viz.NullDisplay.
type Pipeline struct {
	Config

	Flow        FlowEstimator
	Compensator Compensator
	GME         gme.Estimator
	Display     Display

	state       State
}

func NewPipeline(cfg Config, flow FlowEstimator, comp Compensator, est gme.Estimator, disp Display) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if flow == nil || comp == nil || est == nil {
		return nil, errors.New("pipeline: flow estimator, compensator and GME estimator are all required")
	}
	if disp == nil {
		disp = viz.NullDisplay{}
	}
	return &Pipeline{Config: cfg, Flow: flow, Compensator: comp, GME: est, Display: disp}, nil
}

func (p *Pipeline)State() State { return p.state }

// Step analyzes frame i against prev, the frame DeltaT steps before it.
func (p *Pipeline)Step(i int, prev, curr *image.Gray) (FrameResult, error) {
	res := FrameResult{}
	res.Frame = i

	flow, err := p.Flow.Flow(prev, curr)
	if err != nil {
		return res, fmt.Errorf("frame %d: flow: %w", i, err)
	}
	res.Flow = flow

	if res.Compensated, err = p.Compensator.Compensate(prev, flow); err != nil {
		return res, fmt.Errorf("frame %d: compensate: %w", i, err)
	}

	res.ImErr0   = metrics.ErrorImage(prev, curr)
	res.ImErr    = metrics.ErrorImage(res.Compensated, curr)

	res.MSE0     = metrics.MSE(prev, curr)
	res.PSNR0    = metrics.PSNR(res.MSE0)
	res.MSE      = metrics.MSE(res.Compensated, curr)
	res.PSNR     = metrics.PSNR(res.MSE)
	res.Entropy  = metrics.Entropy(curr)
	res.EntropyE = metrics.Entropy(res.ImErr)

	if res.GME, err = p.GME.EstimateGlobalMotion(flow); err != nil {
		return res, fmt.Errorf("frame %d: global motion: %w", i, err)
	}
	if !res.GME.Field.SameSize(flow) {
		return res, fmt.Errorf("frame %d: global motion field is %dx%d, flow is %dx%d", i,
			res.GME.Field.Dx(), res.GME.Field.Dy(), flow.Dx(), flow.Dy())
	}
	res.GMEError    = metrics.GMEError(flow, res.GME.Field)
	res.Residual    = metrics.ResidualSummary(res.GMEError)
	res.GMEResidual = res.Residual.Mean

	if p.Verbosity > 0 {
		log.Printf("frame %4d: MSE0 %8.2f MSE %8.2f, PSNR0 %6.2f PSNR %6.2f, entropy %5.3f/%5.3f, %s\n",
			i, res.MSE0, res.MSE, res.PSNR0, res.PSNR, res.Entropy, res.EntropyE, res.Residual)
	}
	if p.Verbosity > 1 {
		log.Printf("frame %4d: %s, %s, residual %s, H:-\n%s", i, res.Flow, res.GME, res.GMEError.Stats(), res.GME.H)
	}

	return res, nil
}

// Run pulls frames from src until it reports io.EOF, appending one
// sample to rec for every frame that has a frame DeltaT behind it. So N
// frames give max(0, N-DeltaT) samples. The caller owns src.
func (p *Pipeline)Run(src FrameSource, rec *series.Recorder) error {
	buf, err := framebuf.NewDelay(p.DeltaT)
	if err != nil {
		return err
	}
	p.state = Filling

	for i:=0; ; i++ {
		curr, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return fmt.Errorf("read frame %d: %w", i, err)
		}

		if buf.Full() {
			if p.state == Filling {
				log.Printf("Buffer filled after %d frames, starting analysis\n", i)
				p.state = Steady
			}

			prev, err := buf.PopOldest()
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}

			res, err := p.Step(i, prev, curr)
			if err != nil {
				return err
			}
			if err := rec.Append(res.Sample); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			if err := p.dumpHDR(res); err != nil {
				return err
			}
			p.show(res, curr)
		}

		if err := buf.Push(curr); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		p.Display.Show("frame", curr)
		p.Display.EndFrame(i)
	}

	p.state = Done
	log.Printf("Source exhausted, %d frames analyzed\n", rec.Len())
	return nil
}

// HDRFilename is where the raw residual grid of frame i is dumped.
func (p *Pipeline)HDRFilename(i int) string {
	return filepath.Join(p.DumpDir, fmt.Sprintf("gmeError-%05d.hdr", i))
}

func (p *Pipeline)dumpHDR(res FrameResult) error {
	if !p.DumpHDR || p.DumpDir == "" {
		return nil
	}
	if err := viz.WriteHDR(res.GMEError, p.HDRFilename(res.Frame)); err != nil {
		return fmt.Errorf("frame %d: %w", res.Frame, err)
	}
	return nil
}

func (p *Pipeline)show(res FrameResult, curr *image.Gray) {
	if _, none := p.Display.(viz.NullDisplay); none {
		return // skip the rendering
	}
	step := p.FlowGridStep
	p.Display.Show("compensated", res.Compensated)
	p.Display.Show("imErr0", res.ImErr0)
	p.Display.Show("imErr", res.ImErr)
	p.Display.Show("flow", viz.DrawFlow(curr, res.Flow, step))
	p.Display.Show("gme", viz.DrawFlow(curr, res.GME.Field, step))
	p.Display.Show("gmeError", viz.Heatmap(res.GMEError))
}
