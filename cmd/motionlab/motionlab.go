package main

import(
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/abworrall/motionlab/pkg/cvision"
	"github.com/abworrall/motionlab/pkg/gme"
	"github.com/abworrall/motionlab/pkg/imgseq"
	"github.com/abworrall/motionlab/pkg/lab"
	"github.com/abworrall/motionlab/pkg/native"
	"github.com/abworrall/motionlab/pkg/series"
	"github.com/abworrall/motionlab/pkg/viz"
)

// options are the command line flags. Each one overrides the config only
// when it was given explicitly.
type options struct {
	config     string
	verbosity  int
	backend    string
	display    bool
	dumpDir    string
	dumpHDR    bool
	dumpWidth  int
	outputDir  string
	step       int
	homography string
	alpha      float64
}

func newFlagSet(o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("motionlab", pflag.ContinueOnError)
	fs.StringVar(&o.config, "config", "", "YAML file with the base configuration")
	fs.IntVarP(&o.verbosity, "verbosity", "v", 0, "how verbose to get")
	fs.StringVar(&o.backend, "backend", "opencv", "motion estimation backend: opencv or native")
	fs.BoolVar(&o.display, "display", true, "show live windows (opencv only)")
	fs.StringVar(&o.dumpDir, "dump", "", "also write every displayed image into this dir")
	fs.BoolVar(&o.dumpHDR, "dumphdr", false, "also dump each frame's raw GME residual as .hdr (needs --dump)")
	fs.IntVar(&o.dumpWidth, "dumpwidth", 0, "scale dumped images down to at most this wide")
	fs.StringVar(&o.outputDir, "outdir", ".", "where to write the charts")
	fs.IntVar(&o.step, "step", 16, "grid spacing for the flow visualizations")
	fs.StringVar(&o.homography, "homography", "ransac", "homography fit: ransac or lstsq")
	fs.Float64Var(&o.alpha, "alpha", 10, "Horn-Schunck smoothness weight (native backend)")
	fs.Usage = func() {
		log.Printf("usage: motionlab [flags] <video | dir of frames> <deltaT>\n%s", fs.FlagUsages())
	}
	return fs
}

func isImageSequence(path string) bool {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff": return true
	}
	return false
}

// applyFlags overrides the config with any flags given on the command
// line, and then with the positional deltaT, which always wins.
func applyFlags(fs *pflag.FlagSet, o options, deltaT int, cfg *lab.Config) {
	changed := fs.Changed
	if changed("verbosity")  { cfg.Verbosity = o.verbosity }
	if changed("backend")    { cfg.Backend = o.backend }
	if changed("display")    { cfg.Display = o.display }
	if changed("dump")       { cfg.DumpDir = o.dumpDir }
	if changed("dumphdr")    { cfg.DumpHDR = o.dumpHDR }
	if changed("outdir")     { cfg.OutputDir = o.outputDir }
	if changed("step")       { cfg.FlowGridStep = o.step }
	if changed("homography") { cfg.Homography.Method = o.homography }
	if changed("alpha")      { cfg.HornSchunck.Alpha = o.alpha }
	cfg.DeltaT = deltaT
}

func parseDeltaT(arg string) (int, error) {
	deltaT, err := strconv.Atoi(arg)
	if err != nil || deltaT < 1 {
		return 0, fmt.Errorf("deltaT must be a positive integer, got '%s'", arg)
	}
	return deltaT, nil
}

func newBackend(cfg lab.Config) (cvision.Backend, error) {
	if cfg.Backend == "opencv" {
		return cvision.NewBackend(cfg)
	}

	hs, err := native.NewHornSchunck(cfg.HornSchunck)
	if err != nil {
		return cvision.Backend{}, err
	}
	est, err := gme.NewNative(cfg.Homography)
	if err != nil {
		return cvision.Backend{}, err
	}
	return cvision.Backend{Flow: hs, Compensator: native.Remapper{}, GME: est}, nil
}

func main() {
	opts := options{}
	fs := newFlagSet(&opts)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	log.Printf("motionlab starting\n")

	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(2)
	}
	path := fs.Arg(0)
	deltaT, err := parseDeltaT(fs.Arg(1))
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	cfg := lab.NewConfig()
	if opts.config != "" {
		if cfg, err = lab.LoadConfig(opts.config); err != nil {
			log.Fatal(err)
		}
	}

	var src lab.FrameSource
	if isImageSequence(path) {
		seq, err := imgseq.NewSource(path)
		if err != nil {
			log.Printf("%v\n", err)
			log.Fatalf("ERROR: unable to open video: %s", path)
		}
		if seq.Config != nil && opts.config == "" {
			cfg = *seq.Config
		}
		src = seq
	} else {
		vs, err := cvision.OpenVideo(path)
		if err != nil {
			log.Printf("%v\n", err)
			log.Fatalf("ERROR: unable to open video: %s", path)
		}
		src = vs
	}
	defer src.Close()

	applyFlags(fs, opts, deltaT, &cfg)

	if cfg.Backend == "opencv" && !cvision.Available && !fs.Changed("backend") {
		log.Printf("No OpenCV in this build, using the native backend\n")
		cfg.Backend = "native"
	}
	if cfg.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	backend, err := newBackend(cfg)
	if err != nil {
		log.Fatal(err)
	}

	displays := viz.MultiDisplay{}
	if cfg.Display {
		if win, err := cvision.NewWindows(); err != nil {
			log.Printf("No windows: %v\n", err)
		} else {
			defer win.Close()
			displays = append(displays, win)
		}
	}
	var dump *viz.DumpDisplay
	if cfg.DumpDir != "" {
		if err := os.MkdirAll(cfg.DumpDir, 0755); err != nil {
			log.Fatal(err)
		}
		dump = viz.NewDumpDisplay(cfg.DumpDir)
		dump.MaxWidth = opts.dumpWidth
		displays = append(displays, dump)
	}
	var disp lab.Display = viz.NullDisplay{}
	if len(displays) > 0 {
		disp = displays
	}

	p, err := lab.NewPipeline(cfg, backend.Flow, backend.Compensator, backend.GME, disp)
	if err != nil {
		log.Fatal(err)
	}

	rec := series.NewRecorder()
	if err := p.Run(src, rec); err != nil {
		log.Fatal(err)
	}
	if dump != nil {
		log.Printf("Dumped %d images into %s\n", dump.Written, dump.Dir)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatal(err)
	}
	files, err := rec.Plot(cfg.OutputDir)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s\n", strings.Join(files, ", "))
	log.Printf("%s", rec.Summary())
}
