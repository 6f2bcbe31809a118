package plda

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	pkgerrors "github.com/YuminosukeSato/goplda/pkg/errors"
)

func TestEstimateScatterHandComputed(t *testing.T) {
	// Two classes of two points each. Per class the unbiased covariance is
	// [[0.5, 0.5], [0.5, 0.5]], class means are (0.5, 0.5) and (3.5, 0.5),
	// the global mean is (2, 0.5), so
	//
	//   S_b = 2/4*(-1.5,0)(-1.5,0)^T + 2/4*(1.5,0)(1.5,0)^T = [[2.25,0],[0,0]]
	//   S_w = 1/4*cov_0 + 1/4*cov_1                         = [[0.25,0.25],[0.25,0.25]]
	X := mat.NewDense(4, 2, []float64{
		0, 0,
		1, 1,
		3, 0,
		4, 1,
	})
	y := []int{0, 0, 1, 1}

	classes, byClass := groupByClass(y)
	stats, err := estimateScatter(X, classes, byClass)
	if err != nil {
		t.Fatalf("estimateScatter() unexpected error: %v", err)
	}

	if stats.n != 4 || stats.f != 2 {
		t.Errorf("dims = (%d, %d), want (4, 2)", stats.n, stats.f)
	}
	if got := stats.counts[0]; got != 2 {
		t.Errorf("counts[0] = %d, want 2", got)
	}
	if got := stats.counts[1]; got != 2 {
		t.Errorf("counts[1] = %d, want 2", got)
	}

	wantMean := []float64{2, 0.5}
	for j, want := range wantMean {
		if got := stats.mean.AtVec(j); math.Abs(got-want) > 1e-12 {
			t.Errorf("mean[%d] = %v, want %v", j, got, want)
		}
	}

	wantSb := [][]float64{{2.25, 0}, {0, 0}}
	wantSw := [][]float64{{0.25, 0.25}, {0.25, 0.25}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if got := stats.sb.At(i, j); math.Abs(got-wantSb[i][j]) > 1e-12 {
				t.Errorf("sb[%d,%d] = %v, want %v", i, j, got, wantSb[i][j])
			}
			if got := stats.sw.At(i, j); math.Abs(got-wantSw[i][j]) > 1e-12 {
				t.Errorf("sw[%d,%d] = %v, want %v", i, j, got, wantSw[i][j])
			}
		}
	}
}

func TestEstimateScatterDegenerateClass(t *testing.T) {
	X := mat.NewDense(5, 2, []float64{
		0, 0,
		1, 1,
		3, 0,
		4, 1,
		9, 9,
	})
	y := []int{0, 0, 1, 1, 2}

	classes, byClass := groupByClass(y)
	_, err := estimateScatter(X, classes, byClass)
	if err == nil {
		t.Fatal("estimateScatter() expected error for single-example class")
	}

	var dce *pkgerrors.DegenerateClassError
	if !pkgerrors.As(err, &dce) {
		t.Fatalf("expected DegenerateClassError, got %T: %v", err, err)
	}
	if dce.ClassID != 2 {
		t.Errorf("ClassID = %d, want 2", dce.ClassID)
	}
	if dce.Count != 1 {
		t.Errorf("Count = %d, want 1", dce.Count)
	}
}

func TestEstimateScatterTotalDecomposition(t *testing.T) {
	// With unbiased per-class covariances weighted by (n_k-1)/N, the two
	// scatters decompose the (biased) total scatter exactly:
	//
	//   S_b + S_w = (1/N) sum_i (x_i - m)(x_i - m)^T
	//
	// Eight classes also exercises the parallel per-class path.
	const (
		classCount = 8
		perClass   = 5
		features   = 3
	)
	rng := rand.New(rand.NewSource(7))

	n := classCount * perClass
	X := mat.NewDense(n, features, nil)
	y := make([]int, n)
	for c := 0; c < classCount; c++ {
		for i := 0; i < perClass; i++ {
			row := c*perClass + i
			y[row] = c
			for j := 0; j < features; j++ {
				X.Set(row, j, 1.5*float64(c)+rng.NormFloat64())
			}
		}
	}

	classes, byClass := groupByClass(y)
	stats, err := estimateScatter(X, classes, byClass)
	if err != nil {
		t.Fatalf("estimateScatter() unexpected error: %v", err)
	}

	total := mat.NewDense(features, features, nil)
	diff := make([]float64, features)
	for i := 0; i < n; i++ {
		for j := 0; j < features; j++ {
			diff[j] = X.At(i, j) - stats.mean.AtVec(j)
		}
		for a := 0; a < features; a++ {
			for b := 0; b < features; b++ {
				total.Set(a, b, total.At(a, b)+diff[a]*diff[b]/float64(n))
			}
		}
	}

	for a := 0; a < features; a++ {
		for b := 0; b < features; b++ {
			got := stats.sb.At(a, b) + stats.sw.At(a, b)
			if math.Abs(got-total.At(a, b)) > 1e-10 {
				t.Errorf("(sb+sw)[%d,%d] = %v, want %v", a, b, got, total.At(a, b))
			}
		}
	}
}

func TestGroupByClass(t *testing.T) {
	classes, byClass := groupByClass([]int{5, 1, 5, 3, 1, 5})

	wantClasses := []int{1, 3, 5}
	if len(classes) != len(wantClasses) {
		t.Fatalf("classes = %v, want %v", classes, wantClasses)
	}
	for i, want := range wantClasses {
		if classes[i] != want {
			t.Errorf("classes[%d] = %d, want %d", i, classes[i], want)
		}
	}

	wantIdx := map[int][]int{
		1: {1, 4},
		3: {3},
		5: {0, 2, 5},
	}
	for id, want := range wantIdx {
		got := byClass[id]
		if len(got) != len(want) {
			t.Errorf("byClass[%d] = %v, want %v", id, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("byClass[%d] = %v, want %v", id, got, want)
				break
			}
		}
	}
}
