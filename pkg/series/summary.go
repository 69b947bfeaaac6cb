package series

import(
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes one series. Non-finite values are counted in Inf and
// left out of everything else.
type Stats struct {
	Name                 string
	N, Inf               int
	Min, Max             float64
	Mean, Median, StdDev float64
}

func (s Stats)String() string {
	str := fmt.Sprintf("%-11s n=%d", s.Name, s.N)
	if s.N > s.Inf {
		str += fmt.Sprintf(", min %.4f, max %.4f, mean %.4f, median %.4f, stddev %.4f",
			s.Min, s.Max, s.Mean, s.Median, s.StdDev)
	}
	if s.Inf > 0 {
		str += fmt.Sprintf(", %d non-finite", s.Inf)
	}
	return str
}

func NewStats(name string, vals []float64) Stats {
	s := Stats{Name: name, N: len(vals)}

	finite := []float64{}
	for _, v := range vals {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			s.Inf++
			continue
		}
		finite = append(finite, v)
	}
	if len(finite) == 0 {
		return s
	}

	sort.Float64s(finite)
	s.Min    = floats.Min(finite)
	s.Max    = floats.Max(finite)
	s.Median = stat.Quantile(0.5, stat.Empirical, finite, nil)
	s.Mean, s.StdDev = stat.PopMeanStdDev(finite, nil)
	return s
}

// A Summary is the end-of-run report.
type Summary struct {
	Series []Stats

	// How strongly the compensated error tracks the uncompensated one
	// (Pearson, over the samples where both are defined).
	MSECorrelation float64
}

func (r *Recorder)Summary() Summary {
	s := Summary{
		Series: []Stats{
			NewStats("MSE0", r.MSE0),
			NewStats("MSE", r.MSE),
			NewStats("PSNR0", r.PSNR0),
			NewStats("PSNR", r.PSNR),
			NewStats("Entropy", r.Entropy),
			NewStats("EntropyE", r.EntropyE),
			NewStats("GMEResidual", r.GMEResidual),
		},
		MSECorrelation: math.NaN(),
	}
	if len(r.MSE) > 1 {
		s.MSECorrelation = stat.Correlation(r.MSE0, r.MSE, nil)
	}
	return s
}

// Gain is the mean improvement compensation brings, in dB. It is NaN when
// there is nothing finite to compare.
func (s Summary)Gain() float64 {
	var psnr0, psnr *Stats
	for i := range s.Series {
		switch s.Series[i].Name {
		case "PSNR0": psnr0 = &s.Series[i]
		case "PSNR":  psnr  = &s.Series[i]
		}
	}
	if psnr0 == nil || psnr == nil || psnr0.N == psnr0.Inf || psnr.N == psnr.Inf {
		return math.NaN()
	}
	return psnr.Mean - psnr0.Mean
}

func (s Summary)String() string {
	lines := []string{"Metric summary", "=============="}
	for _, st := range s.Series {
		lines = append(lines, "  " + st.String())
	}
	lines = append(lines, fmt.Sprintf("  mean PSNR gain %.3f dB, corr(MSE0,MSE) %.3f", s.Gain(), s.MSECorrelation))
	return strings.Join(lines, "\n") + "\n"
}
