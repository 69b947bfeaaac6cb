// Package metrics computes the per-frame statistics we plot: how far
// apart two frames are (MSE, PSNR), how much information a frame holds
// (entropy), and how far the dense flow strays from the global motion.
package metrics

import(
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/abworrall/motionlab/pkg/emath"
)

// Peak is the max sample value of an 8-bit frame.
const Peak = 255.0

// MSE is the mean of the squared per-pixel differences. Both frames must
// have the same dimensions; that is up to the caller.
func MSE(a, b *image.Gray) float64 {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	if w*h == 0 {
		return 0
	}

	var sum int64
	for y:=0; y<h; y++ {
		ra := a.Pix[y*a.Stride : y*a.Stride+w]
		rb := b.Pix[y*b.Stride : y*b.Stride+w]
		for x:=0; x<w; x++ {
			d := int64(rb[x]) - int64(ra[x])
			sum += d*d
		}
	}
	return float64(sum) / float64(w*h)
}

// PSNR in dB, for 8-bit frames. A zero MSE (identical frames) gives 0,
// not +Inf.
func PSNR(mse float64) float64 {
	if mse == 0 {
		return 0
	}
	return 10 * math.Log10(Peak*Peak/mse)
}

// Histogram counts the intensity values in a frame.
func Histogram(img *image.Gray) [256]int {
	var hist [256]int
	b := img.Bounds()
	for y:=0; y<b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}
	return hist
}

// Entropy is the Shannon entropy of the intensity histogram, in bits
// (so somewhere in [0,8]).
func Entropy(img *image.Gray) float64 {
	b := img.Bounds()
	size := float64(b.Dx() * b.Dy())
	if size == 0 {
		return 0
	}

	hist := Histogram(img)
	p := make([]float64, 0, len(hist))
	for _, n := range hist {
		if n > 0 {
			p = append(p, float64(n) / size)
		}
	}

	// stat.Entropy works in nats
	return stat.Entropy(p) / math.Ln2
}

// ErrorImage renders a-b so it can be looked at: 128 means no
// difference, and the signed difference is halved so the full range
// fits in a byte.
func ErrorImage(a, b *image.Gray) *image.Gray {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			dif := int(a.Pix[y*a.Stride+x]) - int(b.Pix[y*b.Stride+x])
			v := emath.Clamp(float64(dif)/2.0 + 128.0, 0, 255)
			out.SetGray(x, y, color.Gray{uint8(v)}) // truncates, like the uint cast
		}
	}
	return out
}

// GMEError is the per-pixel length of the difference between the dense
// flow and the flow predicted by the global motion model.
func GMEError(flow, gme emath.FlowField) emath.FloatGrid {
	w, h := flow.Dx(), flow.Dy()
	err := emath.NewFloatGrid(w, h)
	fv, gv := flow.Values(), gme.Values()

	for i:=0; i<w*h; i++ {
		err.Values()[i] = math.Hypot(fv[2*i]-gv[2*i], fv[2*i+1]-gv[2*i+1])
	}
	return err
}
