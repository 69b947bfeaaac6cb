// Package native has pure-Go stand-ins for the OpenCV motion routines,
// for when OpenCV isn't around (and for tests): a Horn & Schunck flow
// estimator, and a bilinear remapper.
package native

import(
	"fmt"
	"image"

	"github.com/abworrall/motionlab/pkg/emath"
	"github.com/abworrall/motionlab/pkg/lab"
)

// HornSchunck computes a dense flow field with the method of Horn &
// Schunck, iterated with a Jacobi scheme.
type HornSchunck struct {
	lab.HornSchunckParams
}

func NewHornSchunck(p lab.HornSchunckParams) (*HornSchunck, error) {
	if p.Alpha <= 0 {
		return nil, fmt.Errorf("hornschunck alpha must be positive, got %f", p.Alpha)
	}
	if p.Iterations < 1 {
		return nil, fmt.Errorf("hornschunck iterations must be positive, got %d", p.Iterations)
	}
	return &HornSchunck{p}, nil
}

// Flow returns the field that maps pixels of curr back into prev, so
// that prev(x + flow(x)) ~= curr(x). That's the direction the
// compensator wants.
func (hs *HornSchunck)Flow(prev, curr *image.Gray) (emath.FlowField, error) {
	if !prev.Bounds().Size().Eq(curr.Bounds().Size()) {
		return emath.FlowField{}, fmt.Errorf("hornschunck: frame sizes differ, %s vs %s", prev.Bounds(), curr.Bounds())
	}

	f1 := emath.NewFloatGridFromGray(curr)
	f2 := emath.NewFloatGridFromGray(prev)
	if hs.PreBlur {
		f1 = f1.GaussianBlur()
		f2 = f2.GaussianBlur()
	}

	fx, fy, ft := derivatives(f1, f2)
	return solve(fx, fy, ft, hs.Alpha*hs.Alpha, hs.Iterations), nil
}

func clampIndex(i, n int) int {
	if i < 0 { return 0 }
	if i >= n { return n-1 }
	return i
}

// derivatives averages the spatial derivatives of both frames (central
// differences, replicated edges) and takes the temporal one as f2-f1.
func derivatives(f1, f2 emath.FloatGrid) (fx, fy, ft emath.FloatGrid) {
	w, h := f1.Dx(), f1.Dy()
	fx, fy, ft = f1.NewFromThis(), f1.NewFromThis(), f1.NewFromThis()

	for y:=0; y<h; y++ {
		yn, ys := clampIndex(y-1, h), clampIndex(y+1, h)
		for x:=0; x<w; x++ {
			xw, xe := clampIndex(x-1, w), clampIndex(x+1, w)
			dx := (f1.Get(xe,y) - f1.Get(xw,y) + f2.Get(xe,y) - f2.Get(xw,y)) / 4.0
			dy := (f1.Get(x,ys) - f1.Get(x,yn) + f2.Get(x,ys) - f2.Get(x,yn)) / 4.0
			fx.Set(x, y, dx)
			fy.Set(x, y, dy)
			ft.Set(x, y, f2.Get(x,y) - f1.Get(x,y))
		}
	}
	return
}

func solve(fx, fy, ft emath.FloatGrid, alpha2 float64, iterations int) emath.FlowField {
	w, h := fx.Dx(), fx.Dy()
	uv    := emath.NewFlowField(w, h)
	uvOld := emath.NewFlowField(w, h)

	for k:=0; k<iterations; k++ {
		copy(uvOld.Values(), uv.Values())

		for y:=0; y<h; y++ {
			for x:=0; x<w; x++ {
				// Average of the 4-neighbourhood, from the last iteration
				sum, nn := emath.Vec2{}, 0
				if x > 0   { sum = sum.Add(uvOld.Get(x-1, y)); nn++ }
				if x < w-1 { sum = sum.Add(uvOld.Get(x+1, y)); nn++ }
				if y > 0   { sum = sum.Add(uvOld.Get(x, y-1)); nn++ }
				if y < h-1 { sum = sum.Add(uvOld.Get(x, y+1)); nn++ }
				avg := emath.Vec2{}
				if nn > 0 {
					avg = emath.Vec2{X: sum.X / float64(nn), Y: sum.Y / float64(nn)}
				}

				gx, gy, gt := fx.Get(x,y), fy.Get(x,y), ft.Get(x,y)
				t := (gx*avg.X + gy*avg.Y + gt) / (alpha2 + gx*gx + gy*gy)
				uv.Set(x, y, emath.Vec2{X: avg.X - gx*t, Y: avg.Y - gy*t})
			}
		}
	}

	return uv
}
