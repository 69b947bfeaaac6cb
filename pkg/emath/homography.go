package emath

// Planar projective transforms, used for global motion estimation.

import(
	"fmt"
	"math"

	"golang.org/x/image/math/f64"
)

// A Vec2 is a point, or a displacement, in pixel space.
type Vec2 struct {
	X, Y float64
}

func (a Vec2)Add(b Vec2) Vec2  { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2)Sub(b Vec2) Vec2  { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2)Norm() float64    { return math.Hypot(a.X, a.Y) }
func (a Vec2)String() string   { return fmt.Sprintf("(%.3f,%.3f)", a.X, a.Y) }

// Mat3 is a row-major 3x3 matrix. As a homography it maps [x y 1] to
// [x' y' w'], and the projected point is [x'/w', y'/w'].
type Mat3 f64.Mat3

func Identity() Mat3 {
	return Mat3{1, 0, 0,   0, 1, 0,   0, 0, 1}
}

func (a Mat3)Mult(b Mat3) Mat3 {
	return Mat3{
		a[3*0+0]*b[3*0+0] + a[3*0+1]*b[3*1+0] + a[3*0+2]*b[3*2+0],
		a[3*0+0]*b[3*0+1] + a[3*0+1]*b[3*1+1] + a[3*0+2]*b[3*2+1],
		a[3*0+0]*b[3*0+2] + a[3*0+1]*b[3*1+2] + a[3*0+2]*b[3*2+2],

		a[3*1+0]*b[3*0+0] + a[3*1+1]*b[3*1+0] + a[3*1+2]*b[3*2+0],
		a[3*1+0]*b[3*0+1] + a[3*1+1]*b[3*1+1] + a[3*1+2]*b[3*2+1],
		a[3*1+0]*b[3*0+2] + a[3*1+1]*b[3*1+2] + a[3*1+2]*b[3*2+2],

		a[3*2+0]*b[3*0+0] + a[3*2+1]*b[3*1+0] + a[3*2+2]*b[3*2+0],
		a[3*2+0]*b[3*0+1] + a[3*2+1]*b[3*1+1] + a[3*2+2]*b[3*2+1],
		a[3*2+0]*b[3*0+2] + a[3*2+1]*b[3*1+2] + a[3*2+2]*b[3*2+2],
	}
}

func (m1 Mat3)Translate(tx, ty float64) Mat3 {
	return m1.Mult(Mat3{1, 0, tx,   0, 1, ty,   0, 0, 1})
}

func (m1 Mat3)Scale(s float64) Mat3 {
	return m1.Mult(Mat3{s, 0, 0,   0, s, 0,   0, 0, 1})
}

func (m Mat3)Det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Inverse returns false if the matrix is singular.
func (m Mat3)Inverse() (Mat3, bool) {
	det := m.Det()
	if math.Abs(det) < 1e-12 {
		return Mat3{}, false
	}
	inv := Mat3{
		m[4]*m[8] - m[5]*m[7],  m[2]*m[7] - m[1]*m[8],  m[1]*m[5] - m[2]*m[4],
		m[5]*m[6] - m[3]*m[8],  m[0]*m[8] - m[2]*m[6],  m[2]*m[3] - m[0]*m[5],
		m[3]*m[7] - m[4]*m[6],  m[1]*m[6] - m[0]*m[7],  m[0]*m[4] - m[1]*m[3],
	}
	for i := range inv {
		inv[i] /= det
	}
	return inv, true
}

// Normalized rescales so that h22 == 1; it is returned unchanged if h22 is ~0.
func (m Mat3)Normalized() Mat3 {
	if math.Abs(m[8]) < 1e-12 {
		return m
	}
	n := m
	for i := range n {
		n[i] /= m[8]
	}
	return n
}

// Project applies the homography to a point. It returns false when the
// point maps to infinity.
func (m Mat3)Project(p Vec2) (Vec2, bool) {
	w := m[6]*p.X + m[7]*p.Y + m[8]
	if math.Abs(w) < 1e-12 {
		return Vec2{}, false
	}
	return Vec2{
		(m[0]*p.X + m[1]*p.Y + m[2]) / w,
		(m[3]*p.X + m[4]*p.Y + m[5]) / w,
	}, true
}

func (m Mat3)String() string {
	str := fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*0+0], m[3*0+1], m[3*0+2])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*1+0], m[3*1+1], m[3*1+2])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*2+0], m[3*2+1], m[3*2+2])
	return str
}
