package series

import(
	"fmt"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// A Chart is one of the output charts: a title, and the pairs of
// (legend, series) drawn as lines on it.
type Chart struct {
	Filename string
	Title    string
	Lines    []Line
}

type Line struct {
	Name   string
	Values []float64
}

// Charts lists the charts Plot writes.
func (r *Recorder)Charts() []Chart {
	return []Chart{
		{"mse.png",     "MSE0 vs MSE",         []Line{{"MSE0", r.MSE0}, {"MSE", r.MSE}}},
		{"entropy.png", "Entropy vs EntropyE", []Line{{"Entropy", r.Entropy}, {"EntropyE", r.EntropyE}}},
		{"psnr.png",    "PSNR0 vs PSNR",       []Line{{"PSNR0", r.PSNR0}, {"PSNR", r.PSNR}}},
	}
}

// Plot writes every chart into dir, returning the filenames written.
func (r *Recorder)Plot(dir string) ([]string, error) {
	files := []string{}
	for _, c := range r.Charts() {
		filename := filepath.Join(dir, c.Filename)
		if err := r.plotChart(c, filename); err != nil {
			return files, fmt.Errorf("plot '%s': %w", filename, err)
		}
		files = append(files, filename)
	}
	return files, nil
}

func (r *Recorder)plotChart(c Chart, filename string) error {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = "frames"
	p.Add(plotter.NewGrid())

	args := []interface{}{}
	for _, l := range c.Lines {
		args = append(args, l.Name, r.xys(l.Values))
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return err
	}

	return p.Save(8*vg.Inch, 4*vg.Inch, filename)
}

func (r *Recorder)xys(vals []float64) plotter.XYs {
	pts := make(plotter.XYs, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0 // the plotter refuses non-finite points
		}
		pts[i].X = float64(r.Frames[i])
		pts[i].Y = v
	}
	return pts
}
