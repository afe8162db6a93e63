package systems

import (
	"math/rand"
	"testing"
)

func TestGridCellSizeTracksLargestRadius(t *testing.T) {
	balls := []BallSnap{
		{X: 100, Y: 100, Radius: 10},
		{X: 200, Y: 200, Radius: 25},
	}
	grid := NewClusterGrid()
	grid.Rebuild(balls, testWorldW, testWorldH, 1.2)

	want := float32(2 * 25 * 1.2)
	if got := grid.CellSize(); got != want {
		t.Errorf("cell size = %f, want %f", got, want)
	}
}

func TestGridCellSizeFloor(t *testing.T) {
	balls := []BallSnap{{X: 5, Y: 5, Radius: 0.01}}
	grid := NewClusterGrid()
	grid.Rebuild(balls, testWorldW, testWorldH, 1.0)

	if got := grid.CellSize(); got != 1 {
		t.Errorf("tiny radii should floor cell size at 1, got %f", got)
	}
}

func TestGridEmptyAndSingle(t *testing.T) {
	grid := NewClusterGrid()
	grid.Rebuild(nil, testWorldW, testWorldH, 1.2)
	if got := grid.CandidatesInto(nil, 100, 100); len(got) != 0 {
		t.Errorf("empty grid returned %d candidates", len(got))
	}

	one := []BallSnap{{X: 640, Y: 360, Radius: 12}}
	grid.Rebuild(one, testWorldW, testWorldH, 1.2)
	got := grid.CandidatesInto(nil, 640, 360)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("single ball should be its own candidate, got %v", got)
	}
}

func TestGridFindsEveryMergeablePair(t *testing.T) {
	// Any pair the merge predicate could accept must be discoverable through
	// a 3x3 neighborhood query from either ball.
	rng := rand.New(rand.NewSource(17))
	balls := make([]BallSnap, 300)
	for i := range balls {
		balls[i] = BallSnap{
			X:      rng.Float32() * testWorldW,
			Y:      rng.Float32() * testWorldH,
			Radius: 4 + rng.Float32()*22,
		}
	}
	buffer := float32(1.5)

	grid := NewClusterGrid()
	grid.Rebuild(balls, testWorldW, testWorldH, buffer)

	var scratch []int32
	inCandidates := func(i, j int32) bool {
		scratch = grid.CandidatesInto(scratch[:0], balls[i].X, balls[i].Y)
		for _, c := range scratch {
			if c == j {
				return true
			}
		}
		return false
	}

	for i := 0; i < len(balls); i++ {
		for j := i + 1; j < len(balls); j++ {
			dx := balls[i].X - balls[j].X
			dy := balls[i].Y - balls[j].Y
			reach := (balls[i].Radius + balls[j].Radius) * buffer
			if dx*dx+dy*dy > reach*reach {
				continue
			}
			if !inCandidates(int32(i), int32(j)) {
				t.Fatalf("pair (%d,%d) within reach %f but not in candidates", i, j, reach)
			}
		}
	}
}

func TestGridClampsOutOfBoundsPositions(t *testing.T) {
	// Balls slightly above the world (fresh spawns) must still be queryable.
	balls := []BallSnap{
		{X: 300, Y: -20, Radius: 15},
		{X: 310, Y: 5, Radius: 15},
	}
	grid := NewClusterGrid()
	grid.Rebuild(balls, testWorldW, testWorldH, 1.2)

	got := grid.CandidatesInto(nil, 300, -20)
	if len(got) != 2 {
		t.Errorf("expected both edge balls as candidates, got %v", got)
	}
}
