package lab

import(
	"fmt"
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/motionlab/pkg/gme"
)

/* Example config file ...

verbosity: 1
backend: opencv
deltat: 2
display: true
outputdir: plots
flowgridstep: 16
farneback:
  pyrscale: 0.5
  levels: 3
  winsize: 20
  iterations: 15
  polyn: 5
  polysigma: 1.2
  gaussian: true
homography:
  method: ransac
  reprojthreshold: 3

*/

// FarnebackParams are passed straight through to OpenCV's
// calcOpticalFlowFarneback.
type FarnebackParams struct {
	PyrScale    float64
	Levels      int
	WinSize     int
	Iterations  int
	PolyN       int
	PolySigma   float64
	Gaussian    bool // OPTFLOW_FARNEBACK_GAUSSIAN
}

type HornSchunckParams struct {
	Alpha       float64 // smoothness weight, in intensity units
	Iterations  int
	PreBlur     bool
}

type Config struct {
	Verbosity                   int

	Backend                     string   // "opencv" or "native"
	DeltaT                      int      // compare each frame with the one this many frames back
	Display                     bool     // show live windows (opencv only)
	DumpDir                     string   // if set, every shown image is also written here
	DumpHDR                     bool     // also write the raw GME residual of each frame into DumpDir, as .hdr
	OutputDir                   string   // where the charts go
	FlowGridStep                int      // spacing of the arrows in flow visualizations

	Farneback                   FarnebackParams
	HornSchunck                 HornSchunckParams
	Homography                  gme.Params
}

func NewConfig() Config {
	return Config{
		Backend:      "opencv",
		DeltaT:       1,
		Display:      true,
		OutputDir:    ".",
		FlowGridStep: 16,

		// These are the values the lab handout asks for
		Farneback: FarnebackParams{
			PyrScale:   0.5,
			Levels:     3,
			WinSize:    20,
			Iterations: 15,
			PolyN:      5,
			PolySigma:  1.2,
			Gaussian:   true,
		},
		HornSchunck: HornSchunckParams{
			Alpha:      10,
			Iterations: 100,
			PreBlur:    true,
		},
		Homography: gme.DefaultParams(),
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func LoadConfig(filename string) (Config, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %w", filename, err)
	}

	c, err := newConfigFromYaml(contents)
	if err != nil {
		return Config{}, fmt.Errorf("config parse %s: %w", filename, err)
	}
	return c, nil
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Printf("Can't marshal config yaml: %v\n", err)
		return ""
	}
	return string(b)
}

// Validate does sanity checks, before we start chewing through frames.
func (c Config)Validate() error {
	switch c.Backend {
	case "opencv", "native":
	default:
		return fmt.Errorf("no backend named '%s'", c.Backend)
	}

	if c.DeltaT < 1 {
		return fmt.Errorf("deltaT must be a positive integer, got %d", c.DeltaT)
	}
	if c.DumpHDR && c.DumpDir == "" {
		return fmt.Errorf("dumphdr needs a dumpdir")
	}
	if c.FlowGridStep < 1 {
		return fmt.Errorf("flowgridstep must be positive, got %d", c.FlowGridStep)
	}
	if c.Backend == "opencv" {
		f := c.Farneback
		if f.PyrScale <= 0 || f.PyrScale >= 1 || f.Levels < 1 || f.WinSize < 1 || f.Iterations < 1 {
			return fmt.Errorf("bad farneback params %+v", f)
		}
		if f.PolyN != 5 && f.PolyN != 7 {
			return fmt.Errorf("farneback polyn must be 5 or 7, got %d", f.PolyN)
		}
	}

	return c.Homography.Validate()
}
