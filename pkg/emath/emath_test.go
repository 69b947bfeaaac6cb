package emath

import(
	"image"
	"image/color"
	"math"
	"testing"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestHomographyProject(t *testing.T) {
	tests := []struct {
		name string
		m    Mat3
		in   Vec2
		want Vec2
	}{
		{"identity", Identity(), Vec2{3, -4}, Vec2{3, -4}},
		{"translate", Identity().Translate(2, -1), Vec2{1, 1}, Vec2{3, 0}},
		{"scale", Identity().Scale(2), Vec2{1.5, -2}, Vec2{3, -4}},
		{"projective", Mat3{1, 0, 0, 0, 1, 0, 0.1, 0, 1}, Vec2{10, 5}, Vec2{5, 2.5}},
	}

	for _, tc := range tests {
		got, ok := tc.m.Project(tc.in)
		if !ok {
			t.Fatalf("%s: point went to infinity", tc.name)
		}
		if !near(got.X, tc.want.X, 1e-9) || !near(got.Y, tc.want.Y, 1e-9) {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestHomographyProjectAtInfinity(t *testing.T) {
	m := Mat3{1, 0, 0, 0, 1, 0, 1, 0, 0}
	if _, ok := m.Project(Vec2{0, 7}); ok {
		t.Fatal("expected point at infinity")
	}
}

func TestHomographyInverse(t *testing.T) {
	m := Mat3{1.1, 0.05, 3, -0.02, 0.97, -2, 0.0001, 0.0002, 1}
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("matrix should be invertible")
	}
	prod := m.Mult(inv)
	id := Identity()
	for i := range prod {
		if !near(prod[i], id[i], 1e-9) {
			t.Fatalf("m * inv(m) != I:\n%s", prod)
		}
	}

	if _, ok := (Mat3{}).Inverse(); ok {
		t.Fatal("zero matrix should not be invertible")
	}
}

func TestNormalized(t *testing.T) {
	m := Mat3{2, 0, 4, 0, 2, 6, 0, 0, 2}.Normalized()
	if m[8] != 1 || m[2] != 2 || m[5] != 3 {
		t.Fatalf("bad normalization:\n%s", m)
	}
}

func TestFlowField(t *testing.T) {
	ff := NewConstantFlowField(4, 3, Vec2{1.5, -0.5})
	if ff.Dx() != 4 || ff.Dy() != 3 {
		t.Fatalf("size %dx%d", ff.Dx(), ff.Dy())
	}
	ff.Set(3, 2, Vec2{5.5, 11.5})
	if got := ff.Get(3, 2); got != (Vec2{5.5, 11.5}) {
		t.Fatalf("Get after Set: %s", got)
	}
	mean := ff.Mean()
	if !near(mean.X, (11*1.5+5.5)/12, 1e-12) || !near(mean.Y, (11*-0.5+11.5)/12, 1e-12) {
		t.Fatalf("mean %s", mean)
	}

	cp := ff.Copy()
	cp.Set(0, 0, Vec2{})
	if ff.Get(0, 0) != (Vec2{1.5, -0.5}) {
		t.Fatal("Copy shares storage")
	}
}

func TestFloatGridFromGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(2, 1, color.Gray{200})
	g := NewFloatGridFromGray(img)
	if g.Dx() != 3 || g.Dy() != 2 || g.Get(2, 1) != 200 || g.Get(0, 0) != 0 {
		t.Fatalf("unexpected grid %s", g.Stats())
	}

	min, max := g.MinMax()
	if min != 0 || max != 200 {
		t.Fatalf("minmax %f %f", min, max)
	}
}

func TestGaussianBlurKeepsConstant(t *testing.T) {
	g := NewFloatGrid(5, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			g.Set(x, y, 42)
		}
	}
	b := g.GaussianBlur()
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			if !near(b.Get(x, y), 42, 1e-12) {
				t.Fatalf("blur changed constant grid at %d,%d: %f", x, y, b.Get(x, y))
			}
		}
	}
}
