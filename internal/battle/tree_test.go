package battle

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestFitTree_Separable(t *testing.T) {
	x := [][]float64{{1, 0}, {2, 1}, {3, 0}, {10, 1}, {11, 0}, {12, 1}}
	y := []bool{false, false, false, true, true, true}

	tree, err := FitTree(x, y, TreeOptions{Seed: 1})
	if err != nil {
		t.Fatalf("FitTree: %v", err)
	}
	if tree.Depth() != 1 || tree.Leaves() != 2 {
		t.Errorf("depth=%d leaves=%d, want 1 and 2", tree.Depth(), tree.Leaves())
	}
	if tree.Nodes[0].Feature != 0 || tree.Nodes[0].Threshold != 6.5 {
		t.Errorf("root split = f%d <= %v, want f0 <= 6.5", tree.Nodes[0].Feature, tree.Nodes[0].Threshold)
	}

	for _, tc := range []struct {
		x    []float64
		want float64
	}{
		{[]float64{0, 0}, 0},
		{[]float64{6.5, 1}, 0},
		{[]float64{7, 0}, 1},
	} {
		got, err := tree.ProbaPositive(tc.x)
		if err != nil {
			t.Fatalf("ProbaPositive: %v", err)
		}
		if got != tc.want {
			t.Errorf("ProbaPositive(%v) = %v, want %v", tc.x, got, tc.want)
		}
	}
}

func TestFitTree_Limits(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}}
	y := []bool{false, true, false, true, false, true}

	stump, err := FitTree(x, y, TreeOptions{MaxDepth: 1})
	if err != nil {
		t.Fatalf("FitTree: %v", err)
	}
	if stump.Depth() > 1 {
		t.Errorf("depth = %d, want <= 1", stump.Depth())
	}

	leafy, err := FitTree(x, y, TreeOptions{MinSamplesLeaf: 3})
	if err != nil {
		t.Fatalf("FitTree: %v", err)
	}
	for i, n := range leafy.Nodes {
		if n.Feature < 0 && n.Total < 3 {
			t.Errorf("leaf %d has %d samples, want >= 3", i, n.Total)
		}
	}
	p, _ := leafy.ProbaPositive([]float64{1})
	if p <= 0 || p >= 1 {
		t.Errorf("ProbaPositive = %v, want a mixed leaf", p)
	}
}

func TestFitTree_Deterministic(t *testing.T) {
	x := make([][]float64, 0, 40)
	y := make([]bool, 0, 40)
	for i := 0; i < 40; i++ {
		a := math.Mod(float64(i*7), 13)
		b := math.Mod(float64(i*5), 11)
		x = append(x, []float64{a, b, a - b})
		y = append(y, a > b)
	}

	t1, err := FitTree(x, y, TreeOptions{Seed: 2345})
	if err != nil {
		t.Fatalf("FitTree: %v", err)
	}
	t2, _ := FitTree(x, y, TreeOptions{Seed: 2345})
	if !reflect.DeepEqual(t1, t2) {
		t.Error("trees differ for the same seed")
	}
}

func TestFitTree_Errors(t *testing.T) {
	if _, err := FitTree(nil, nil, TreeOptions{}); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := FitTree([][]float64{{1}}, []bool{true, false}, TreeOptions{}); err == nil {
		t.Error("expected error for label count mismatch")
	}
	if _, err := FitTree([][]float64{{1}, {1, 2}}, []bool{true, false}, TreeOptions{}); err == nil {
		t.Error("expected error for ragged rows")
	}

	tree, _ := FitTree([][]float64{{1}, {2}}, []bool{true, false}, TreeOptions{})
	if _, err := tree.ProbaPositive([]float64{1, 2}); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("err = %v, want ErrSchemaMismatch", err)
	}
}

func TestFitTree_AdjacentFloats(t *testing.T) {
	lo := math.Nextafter(1, 2)
	hi := math.Nextafter(lo, 2)
	x := [][]float64{{lo}, {hi}}
	y := []bool{false, true}

	tree, err := FitTree(x, y, TreeOptions{})
	if err != nil {
		t.Fatalf("FitTree: %v", err)
	}
	if tree.Depth() != 1 || tree.Leaves() != 2 {
		t.Fatalf("depth=%d leaves=%d, want 1 and 2", tree.Depth(), tree.Leaves())
	}
	if th := tree.Nodes[0].Threshold; th < lo || th >= hi {
		t.Errorf("threshold = %v, want in [%v, %v)", th, lo, hi)
	}
	for i, n := range tree.Nodes {
		if n.Feature < 0 && n.Total == 0 {
			t.Errorf("leaf %d is empty", i)
		}
	}
	for i, want := range []float64{0, 1} {
		got, err := tree.ProbaPositive(x[i])
		if err != nil {
			t.Fatalf("ProbaPositive: %v", err)
		}
		if got != want {
			t.Errorf("ProbaPositive(%v) = %v, want %v", x[i], got, want)
		}
	}
}
