package emath

import "fmt"

// A FlowField holds one displacement (dx,dy) per pixel, interleaved.
type FlowField struct {
	stride int
	values []float64
}

func NewFlowField(w, h int) FlowField {
	return FlowField{
		stride: w,
		values: make([]float64, 2*w*h),
	}
}

// NewConstantFlowField is mostly for tests: every pixel moves by d.
func NewConstantFlowField(w, h int, d Vec2) FlowField {
	ff := NewFlowField(w, h)
	for i:=0; i<len(ff.values); i+=2 {
		ff.values[i], ff.values[i+1] = d.X, d.Y
	}
	return ff
}

func (ff *FlowField)Dx() int { return ff.stride }

func (ff *FlowField)Dy() int {
	if ff.stride == 0 {
		return 0
	}
	return len(ff.values) / (2*ff.stride)
}

func (ff *FlowField)Get(x, y int) Vec2 {
	i := 2*(ff.stride*y + x)
	return Vec2{ff.values[i], ff.values[i+1]}
}

func (ff *FlowField)Set(x, y int, v Vec2) {
	i := 2*(ff.stride*y + x)
	ff.values[i], ff.values[i+1] = v.X, v.Y
}

// Values exposes the interleaved [dx0 dy0 dx1 dy1 ...] storage, row major.
func (ff *FlowField)Values() []float64 { return ff.values }

func (ff *FlowField)SameSize(other FlowField) bool {
	return ff.Dx() == other.Dx() && ff.Dy() == other.Dy()
}

func (ff *FlowField)Copy() FlowField {
	ff2 := FlowField{stride: ff.stride, values: make([]float64, len(ff.values))}
	copy(ff2.values, ff.values)
	return ff2
}

// Mean returns the average displacement.
func (ff *FlowField)Mean() Vec2 {
	n := len(ff.values) / 2
	if n == 0 {
		return Vec2{}
	}
	sum := Vec2{}
	for i:=0; i<len(ff.values); i+=2 {
		sum.X += ff.values[i]
		sum.Y += ff.values[i+1]
	}
	return Vec2{sum.X / float64(n), sum.Y / float64(n)}
}

func (ff FlowField)String() string {
	return fmt.Sprintf("flow[%dx%d, mean %s]", ff.Dx(), ff.Dy(), ff.Mean())
}
