package lab

import(
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/abworrall/motionlab/pkg/emath"
	"github.com/abworrall/motionlab/pkg/gme"
	"github.com/abworrall/motionlab/pkg/series"
	"github.com/abworrall/motionlab/pkg/viz"
)

func constant(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

type sliceSource struct {
	frames []*image.Gray
	next   int
	failAt int // -1 for never
	closed bool
}

func newSliceSource(n int, frame func(i int) *image.Gray) *sliceSource {
	s := &sliceSource{failAt: -1}
	for i:=0; i<n; i++ {
		s.frames = append(s.frames, frame(i))
	}
	return s
}

var errCorrupt = errors.New("corrupt frame")

func (s *sliceSource)Next() (*image.Gray, error) {
	if s.next == s.failAt {
		return nil, errCorrupt
	}
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	s.next++
	return s.frames[s.next-1], nil
}

func (s *sliceSource)Close() error { s.closed = true; return nil }

// zeroFlow remembers the first pixel of each pair it was asked about.
type zeroFlow struct {
	pairs [][2]uint8
	err   error
}

func (z *zeroFlow)Flow(prev, curr *image.Gray) (emath.FlowField, error) {
	if z.err != nil {
		return emath.FlowField{}, z.err
	}
	z.pairs = append(z.pairs, [2]uint8{prev.Pix[0], curr.Pix[0]})
	b := curr.Bounds()
	return emath.NewFlowField(b.Dx(), b.Dy()), nil
}

type copyCompensator struct{}

func (copyCompensator)Compensate(prev *image.Gray, flow emath.FlowField) (*image.Gray, error) {
	out := image.NewGray(prev.Bounds())
	copy(out.Pix, prev.Pix)
	return out, nil
}

type zeroGME struct{ err error }

func (z zeroGME)EstimateGlobalMotion(flow emath.FlowField) (gme.Result, error) {
	if z.err != nil {
		return gme.Result{}, z.err
	}
	return gme.Result{H: emath.Identity(), Field: emath.NewFlowField(flow.Dx(), flow.Dy())}, nil
}

type countingDisplay struct {
	shown  map[string]int
	frames []int
}

func (c *countingDisplay)Show(name string, img image.Image) {
	if c.shown == nil {
		c.shown = map[string]int{}
	}
	c.shown[name]++
}
func (c *countingDisplay)EndFrame(i int) { c.frames = append(c.frames, i) }

func testConfig(deltaT int) Config {
	c := NewConfig()
	c.Backend = "native"
	c.Display = false
	c.DeltaT = deltaT
	return c
}

func newTestPipeline(t *testing.T, deltaT int, flow FlowEstimator, est gme.Estimator, disp Display) *Pipeline {
	t.Helper()
	p, err := NewPipeline(testConfig(deltaT), flow, copyCompensator{}, est, disp)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRunSampleCount(t *testing.T) {
	tests := []struct{
		frames, deltaT int
	}{
		{0, 1}, {1, 1}, {2, 1}, {5, 1},
		{2, 2}, {3, 2}, {10, 3}, {3, 5},
	}

	for _, tc := range tests {
		name := fmt.Sprintf("N=%d,d=%d", tc.frames, tc.deltaT)
		src := newSliceSource(tc.frames, func(i int) *image.Gray { return constant(8, 6, uint8(i)) })
		p := newTestPipeline(t, tc.deltaT, &zeroFlow{}, zeroGME{}, nil)
		rec := series.NewRecorder()

		if err := p.Run(src, rec); err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		want := tc.frames - tc.deltaT
		if want < 0 { want = 0 }
		if rec.Len() != want {
			t.Errorf("%s: got %d samples, want %d", name, rec.Len(), want)
		}
		for i, f := range rec.Frames {
			if f != tc.deltaT + i {
				t.Errorf("%s: sample %d has frame %d, want %d", name, i, f, tc.deltaT+i)
			}
		}
		if p.State() != Done {
			t.Errorf("%s: state %s after run", name, p.State())
		}
		if src.closed {
			t.Errorf("%s: pipeline closed a source it doesn't own", name)
		}
	}
}

func TestRunPairsWithFrameDeltaTBack(t *testing.T) {
	for _, d := range []int{1, 2, 4} {
		flow := &zeroFlow{}
		src := newSliceSource(9, func(i int) *image.Gray { return constant(4, 4, uint8(10*i)) })
		p := newTestPipeline(t, d, flow, zeroGME{}, nil)
		if err := p.Run(src, series.NewRecorder()); err != nil {
			t.Fatal(err)
		}
		for _, pair := range flow.pairs {
			if int(pair[1]) - int(pair[0]) != 10*d {
				t.Errorf("d=%d: frame %d was paired with %d", d, pair[1]/10, pair[0]/10)
			}
		}
	}
}

func TestRunMetrics(t *testing.T) {
	src := newSliceSource(3, func(i int) *image.Gray { return constant(8, 8, uint8(100 + 4*i)) })
	p := newTestPipeline(t, 1, &zeroFlow{}, zeroGME{}, nil)
	rec := series.NewRecorder()
	if err := p.Run(src, rec); err != nil {
		t.Fatal(err)
	}

	// Frames differ by a constant 4, and the copy compensator changes nothing.
	for i := 0; i < rec.Len(); i++ {
		s := rec.At(i)
		if s.MSE0 != 16 || s.MSE != 16 {
			t.Errorf("sample %d: MSE0 %f MSE %f", i, s.MSE0, s.MSE)
		}
		if math.Abs(s.PSNR - 10*math.Log10(255*255/16.0)) > 1e-9 {
			t.Errorf("sample %d: PSNR %f", i, s.PSNR)
		}
		if s.Entropy != 0 || s.EntropyE != 0 || s.GMEResidual != 0 {
			t.Errorf("sample %d: %+v", i, s)
		}
	}
}

func TestRunIdenticalFrames(t *testing.T) {
	src := newSliceSource(4, func(i int) *image.Gray { return constant(8, 8, 77) })
	p := newTestPipeline(t, 2, &zeroFlow{}, zeroGME{}, nil)
	rec := series.NewRecorder()
	if err := p.Run(src, rec); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < rec.Len(); i++ {
		if rec.MSE0[i] != 0 || rec.PSNR0[i] != 0 {
			t.Errorf("sample %d: MSE0 %f PSNR0 %f", i, rec.MSE0[i], rec.PSNR0[i])
		}
	}
}

func TestRunErrors(t *testing.T) {
	errFlow := errors.New("flow exploded")
	tests := []struct{
		name    string
		failAt  int
		flow    *zeroFlow
		est     gme.Estimator
		want    error
		samples int
	}{
		{"read", 3, &zeroFlow{}, zeroGME{}, errCorrupt, 2},
		{"flow", -1, &zeroFlow{err: errFlow}, zeroGME{}, errFlow, 0},
		{"gme", -1, &zeroFlow{}, zeroGME{err: gme.ErrDegenerate}, gme.ErrDegenerate, 0},
	}

	for _, tc := range tests {
		src := newSliceSource(6, func(i int) *image.Gray { return constant(8, 8, uint8(i)) })
		src.failAt = tc.failAt
		p := newTestPipeline(t, 1, tc.flow, tc.est, nil)
		rec := series.NewRecorder()

		err := p.Run(src, rec)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
		if rec.Len() != tc.samples {
			t.Errorf("%s: %d samples recorded", tc.name, rec.Len())
		}
	}
}

func TestRunWithNativeGME(t *testing.T) {
	est, err := gme.NewNative(gme.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	src := newSliceSource(3, func(i int) *image.Gray { return constant(24, 16, uint8(50*i)) })
	p := newTestPipeline(t, 1, &zeroFlow{}, est, nil)
	rec := series.NewRecorder()
	if err := p.Run(src, rec); err != nil {
		t.Fatal(err)
	}
	for i, r := range rec.GMEResidual {
		if r > 1e-6 {
			t.Errorf("sample %d: zero flow should leave no residual, got %f", i, r)
		}
	}
}

func TestRunDisplay(t *testing.T) {
	disp := &countingDisplay{}
	src := newSliceSource(5, func(i int) *image.Gray { return constant(32, 32, uint8(i)) })
	p := newTestPipeline(t, 2, &zeroFlow{}, zeroGME{}, disp)
	if err := p.Run(src, series.NewRecorder()); err != nil {
		t.Fatal(err)
	}

	if disp.shown["frame"] != 5 || len(disp.frames) != 5 {
		t.Errorf("frame shown %d times, %d frame ends", disp.shown["frame"], len(disp.frames))
	}
	for _, name := range []string{"compensated", "imErr0", "imErr", "flow", "gme", "gmeError"} {
		if disp.shown[name] != 3 {
			t.Errorf("%s shown %d times, want 3", name, disp.shown[name])
		}
	}
}

func TestRunDumpHDR(t *testing.T) {
	cfg := testConfig(1)
	cfg.DumpDir = t.TempDir()
	cfg.DumpHDR = true
	p, err := NewPipeline(cfg, &zeroFlow{}, copyCompensator{}, zeroGME{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	src := newSliceSource(3, func(i int) *image.Gray { return constant(8, 6, uint8(i)) })
	if err := p.Run(src, series.NewRecorder()); err != nil {
		t.Fatal(err)
	}

	for _, i := range []int{1, 2} {
		filename := filepath.Join(cfg.DumpDir, fmt.Sprintf("gmeError-%05d.hdr", i))
		if p.HDRFilename(i) != filename {
			t.Errorf("HDRFilename(%d) = %s", i, p.HDRFilename(i))
		}
		if fi, err := os.Stat(filename); err != nil || fi.Size() == 0 {
			t.Errorf("frame %d: residual dump missing or empty (%v)", i, err)
		}
	}
	if _, err := os.Stat(p.HDRFilename(0)); err == nil {
		t.Error("frame 0 has nothing to compare against, but was dumped")
	}
}

type wrongSizeGME struct{}

func (wrongSizeGME)EstimateGlobalMotion(flow emath.FlowField) (gme.Result, error) {
	return gme.Result{Field: emath.NewFlowField(flow.Dx()+1, flow.Dy())}, nil
}

func TestStepRejectsMismatchedGMEField(t *testing.T) {
	p := newTestPipeline(t, 1, &zeroFlow{}, wrongSizeGME{}, nil)
	if _, err := p.Step(1, constant(4, 4, 0), constant(4, 4, 1)); err == nil {
		t.Fatal("expected a size mismatch error")
	}
}

func TestNilDisplayIsNull(t *testing.T) {
	p := newTestPipeline(t, 1, &zeroFlow{}, zeroGME{}, nil)
	if _, ok := p.Display.(viz.NullDisplay); !ok {
		t.Fatalf("display is %T", p.Display)
	}
}

func TestNewPipelineRequiresCollaborators(t *testing.T) {
	if _, err := NewPipeline(testConfig(1), nil, copyCompensator{}, zeroGME{}, nil); err == nil {
		t.Error("expected an error for a missing flow estimator")
	}
	if _, err := NewPipeline(testConfig(0), &zeroFlow{}, copyCompensator{}, zeroGME{}, nil); err == nil {
		t.Error("expected an error for deltaT 0")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := NewConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}

	tests := []struct{
		name   string
		modify func(c *Config)
	}{
		{"backend", func(c *Config) { c.Backend = "cuda" }},
		{"deltaT", func(c *Config) { c.DeltaT = -1 }},
		{"step", func(c *Config) { c.FlowGridStep = 0 }},
		{"dumphdr", func(c *Config) { c.DumpHDR, c.DumpDir = true, "" }},
		{"polyn", func(c *Config) { c.Farneback.PolyN = 6 }},
		{"pyrscale", func(c *Config) { c.Farneback.PyrScale = 1.5 }},
		{"method", func(c *Config) { c.Homography.Method = "lmeds" }},
		{"threshold", func(c *Config) { c.Homography.ReprojThreshold = 0 }},
	}
	for _, tc := range tests {
		c := NewConfig()
		tc.modify(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation to fail", tc.name)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	yml := `
verbosity: 2
backend: native
deltat: 3
hornschunck:
  alpha: 4.5
homography:
  method: lstsq
`
	filename := filepath.Join(t.TempDir(), "lab.yaml")
	if err := os.WriteFile(filename, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfig(filename)
	if err != nil {
		t.Fatal(err)
	}
	if c.Verbosity != 2 || c.Backend != "native" || c.DeltaT != 3 {
		t.Errorf("top level fields not loaded: %+v", c)
	}
	if c.HornSchunck.Alpha != 4.5 || c.HornSchunck.Iterations != 100 {
		t.Errorf("hornschunck %+v", c.HornSchunck)
	}
	if c.Homography.Method != "lstsq" || c.Homography.MaxIters != 2000 {
		t.Errorf("homography %+v", c.Homography)
	}
	if c.Farneback.WinSize != 20 {
		t.Errorf("unset fields should keep their defaults, winsize %d", c.Farneback.WinSize)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
