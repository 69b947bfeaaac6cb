package main

import(
	"os"
	"path/filepath"
	"testing"

	"github.com/abworrall/motionlab/pkg/lab"
)

func TestApplyFlags(t *testing.T) {
	opts := options{}
	fs := newFlagSet(&opts)
	if err := fs.Parse([]string{"--step", "8", "--dump", "out", "--dumphdr", "clip.mp4", "3"}); err != nil {
		t.Fatal(err)
	}

	// As if loaded from YAML
	cfg := lab.NewConfig()
	cfg.Verbosity = 2
	cfg.FlowGridStep = 4
	cfg.OutputDir = "charts"
	cfg.Homography.Method = "lstsq"
	cfg.DeltaT = 9

	applyFlags(fs, opts, 3, &cfg)

	if cfg.FlowGridStep != 8 || cfg.DumpDir != "out" || !cfg.DumpHDR {
		t.Errorf("given flags not applied: %+v", cfg)
	}
	if cfg.Verbosity != 2 || cfg.OutputDir != "charts" || cfg.Homography.Method != "lstsq" {
		t.Errorf("flags that weren't given clobbered the config: %+v", cfg)
	}
	if cfg.DeltaT != 3 {
		t.Errorf("positional deltaT should win, got %d", cfg.DeltaT)
	}
	if fs.NArg() != 2 || fs.Arg(0) != "clip.mp4" {
		t.Errorf("positional args %v", fs.Args())
	}
}

func TestParseDeltaT(t *testing.T) {
	tests := []struct{
		arg  string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{"12", 12, true},
		{"0", 0, false},
		{"-2", 0, false},
		{"two", 0, false},
	}
	for _, tc := range tests {
		got, err := parseDeltaT(tc.arg)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("parseDeltaT(%q) = %d, %v", tc.arg, got, err)
		}
	}
}

func TestIsImageSequence(t *testing.T) {
	dir := t.TempDir()
	tests := []struct{
		path string
		want bool
	}{
		{dir, true},
		{"frame-001.PNG", true},
		{"shot.jpeg", true},
		{"scan.tif", true},
		{"clip.mp4", false},
		{filepath.Join(dir, "missing.avi"), false},
	}
	for _, tc := range tests {
		if got := isImageSequence(tc.path); got != tc.want {
			t.Errorf("isImageSequence(%s) = %v", tc.path, got)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "clip.avi"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if isImageSequence(filepath.Join(dir, "clip.avi")) {
		t.Error("a video file is not an image sequence")
	}
}
