package metrics

import(
	"fmt"
	"math"

	"github.com/codahale/hdrhistogram"

	"github.com/abworrall/motionlab/pkg/emath"
)

const(
	residualUnitsPerPixel = 1000      // histogram works in ints; record milli-pixels
	residualMaxPixels     = 10000     // anything further off than this is clamped
)

// Residual summarizes a GME residual grid, in pixels.
type Residual struct {
	Mean float64
	P50  float64
	P90  float64
	P99  float64
	Max  float64
}

func (r Residual)String() string {
	return fmt.Sprintf("residual[mean %.3f, p50 %.3f, p90 %.3f, p99 %.3f, max %.3f]",
		r.Mean, r.P50, r.P90, r.P99, r.Max)
}

// ResidualSummary builds the distribution of the per-pixel residual. The
// quantiles are accurate to 3 significant figures; the mean is exact.
func ResidualSummary(grid emath.FloatGrid) Residual {
	values := grid.Values()
	if len(values) == 0 {
		return Residual{}
	}

	h := hdrhistogram.New(1, residualMaxPixels*residualUnitsPerPixel, 3)
	max := 0.0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v > max { max = v }
		milli := int64(math.Round(emath.Clamp(v, 0, residualMaxPixels) * residualUnitsPerPixel))
		h.RecordValue(milli) // can't fail, value is clamped into range
	}

	q := func(pct float64) float64 {
		return float64(h.ValueAtQuantile(pct)) / residualUnitsPerPixel
	}

	return Residual{
		Mean: grid.Mean(),
		P50:  q(50),
		P90:  q(90),
		P99:  q(99),
		Max:  max,
	}
}
