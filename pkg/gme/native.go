package gme

import(
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/abworrall/motionlab/pkg/emath"
)

// Native fits the homography in Go, using a normalized DLT (h22 fixed
// to 1) solved via gonum, optionally inside a RANSAC loop.
type Native struct {
	Params
	rng *rand.Rand
}

func NewNative(p Params) (*Native, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.SamplePoints < 4 {
		p.SamplePoints = DefaultParams().SamplePoints
	}
	return &Native{Params: p, rng: rand.New(rand.NewSource(p.Seed))}, nil
}

func (n *Native)EstimateGlobalMotion(flow emath.FlowField) (Result, error) {
	src, dst := Correspondences(flow)
	H, inliers, err := n.FitHomography(src, dst)
	if err != nil {
		return Result{}, err
	}

	projected := make([]emath.Vec2, len(src))
	for i, p := range src {
		q, ok := H.Project(p)
		if !ok {
			return Result{}, fmt.Errorf("project %s: %w", p, ErrDegenerate)
		}
		projected[i] = q
	}

	field, err := FieldFromProjection(flow.Dx(), flow.Dy(), src, projected)
	if err != nil {
		return Result{}, err
	}
	return Result{H: H, Field: field, Inliers: inliers, Points: len(src)}, nil
}

// FitHomography finds H such that H(src[i]) ~= dst[i]. It returns how
// many of the points were inliers (all of them, for lstsq).
func (n *Native)FitHomography(src, dst []emath.Vec2) (emath.Mat3, int, error) {
	if len(src) != len(dst) {
		return emath.Mat3{}, 0, fmt.Errorf("gme: %d src points but %d dst points", len(src), len(dst))
	}
	if len(src) < 4 {
		return emath.Mat3{}, 0, fmt.Errorf("%d points: %w", len(src), ErrDegenerate)
	}

	all := make([]int, len(src))
	for i := range all {
		all[i] = i
	}

	if n.Method == "lstsq" {
		H, err := fitDLT(src, dst, all)
		return H, len(src), err
	}
	return n.ransac(src, dst, all)
}

func (n *Native)ransac(src, dst []emath.Vec2, all []int) (emath.Mat3, int, error) {
	scoring := all
	if len(all) > n.SamplePoints {
		perm := n.rng.Perm(len(all))
		scoring = perm[:n.SamplePoints]
	}
	thresh2 := n.ReprojThreshold * n.ReprojThreshold

	bestH, bestCount := emath.Mat3{}, 0
	iters := n.MaxIters
	minimal := make([]int, 4)

	for it:=0; it<iters; it++ {
		n.pickDistinct(len(src), minimal)
		H, err := fitDLT(src, dst, minimal)
		if err != nil {
			continue // collinear sample etc.
		}

		count := countInliers(H, src, dst, scoring, thresh2, nil)
		if count > bestCount {
			bestH, bestCount = H, count
			if adapted := ransacIterations(n.Confidence, float64(count)/float64(len(scoring)), n.MaxIters); adapted < iters {
				iters = adapted
			}
		}
	}

	if bestCount < 4 {
		return emath.Mat3{}, 0, fmt.Errorf("ransac found %d inliers: %w", bestCount, ErrDegenerate)
	}

	inliers := []int{}
	countInliers(bestH, src, dst, all, thresh2, &inliers)
	if len(inliers) < 4 {
		return emath.Mat3{}, 0, fmt.Errorf("ransac kept %d inliers: %w", len(inliers), ErrDegenerate)
	}

	// Polish on every inlier; if that goes bad, the sample fit still stands
	if H, err := fitDLT(src, dst, inliers); err == nil {
		bestH = H
	}
	return bestH, len(inliers), nil
}

func (n *Native)pickDistinct(max int, out []int) {
	for i := 0; i < len(out); {
		v := n.rng.Intn(max)
		dup := false
		for j:=0; j<i; j++ {
			if out[j] == v { dup = true }
		}
		if !dup {
			out[i] = v
			i++
		}
	}
}

func countInliers(H emath.Mat3, src, dst []emath.Vec2, idx []int, thresh2 float64, keep *[]int) int {
	count := 0
	for _, i := range idx {
		q, ok := H.Project(src[i])
		if !ok {
			continue
		}
		d := q.Sub(dst[i])
		if d.X*d.X + d.Y*d.Y <= thresh2 {
			count++
			if keep != nil {
				*keep = append(*keep, i)
			}
		}
	}
	return count
}

// ransacIterations is the number of samples needed to draw one clean
// minimal set with the given confidence, for an inlier ratio w.
func ransacIterations(confidence, w float64, max int) int {
	if w >= 1 {
		return 1
	}
	den := math.Log(1 - math.Pow(w, 4))
	if den >= 0 || math.IsInf(den, -1) {
		return max
	}
	k := math.Ceil(math.Log(1-confidence) / den)
	if k > float64(max) {
		return max
	}
	return int(k)
}

// normalizer makes the conditioning transform for a point set: it moves
// the centroid to the origin, and scales so the mean distance is sqrt(2).
func normalizer(pts []emath.Vec2, idx []int) (emath.Mat3, bool) {
	c := emath.Vec2{}
	for _, i := range idx {
		c = c.Add(pts[i])
	}
	c.X /= float64(len(idx))
	c.Y /= float64(len(idx))

	dist := 0.0
	for _, i := range idx {
		dist += pts[i].Sub(c).Norm()
	}
	dist /= float64(len(idx))
	if dist < 1e-12 {
		return emath.Mat3{}, false
	}

	return emath.Identity().Scale(math.Sqrt2 / dist).Translate(-c.X, -c.Y), true
}

// fitDLT solves the least squares system for the 8 free parameters of the
// homography, via the normal equations, in normalized coordinates.
func fitDLT(src, dst []emath.Vec2, idx []int) (emath.Mat3, error) {
	Ts, ok1 := normalizer(src, idx)
	Td, ok2 := normalizer(dst, idx)
	if !ok1 || !ok2 {
		return emath.Mat3{}, ErrDegenerate
	}
	TdInv, ok := Td.Inverse()
	if !ok {
		return emath.Mat3{}, ErrDegenerate
	}

	var ata [64]float64
	var atb [8]float64
	accumulate := func(row [8]float64, b float64) {
		for r:=0; r<8; r++ {
			if row[r] == 0 {
				continue
			}
			for c:=0; c<8; c++ {
				ata[8*r+c] += row[r] * row[c]
			}
			atb[r] += row[r] * b
		}
	}

	for _, i := range idx {
		s, _ := Ts.Project(src[i])
		d, _ := Td.Project(dst[i])
		X, Y, x, y := s.X, s.Y, d.X, d.Y
		accumulate([8]float64{X, Y, 1, 0, 0, 0, -X*x, -Y*x}, x)
		accumulate([8]float64{0, 0, 0, X, Y, 1, -X*y, -Y*y}, y)
	}

	var h mat.VecDense
	if err := h.SolveVec(mat.NewDense(8, 8, ata[:]), mat.NewVecDense(8, atb[:])); err != nil {
		return emath.Mat3{}, fmt.Errorf("solve: %v: %w", err, ErrDegenerate)
	}

	Hn := emath.Mat3{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	}
	H := TdInv.Mult(Hn).Mult(Ts)
	if math.Abs(H[8]) < 1e-12 {
		return emath.Mat3{}, ErrDegenerate
	}
	return H.Normalized(), nil
}
