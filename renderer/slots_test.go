package renderer

import (
	"testing"

	"github.com/ahammer/metalrain/config"
	"github.com/ahammer/metalrain/systems"
)

func init() {
	config.MustInit("")
}

func testPalette(t *testing.T) *Palette {
	t.Helper()
	pal, err := NewPalette(config.Cfg().Palette.BaseColors, config.Cfg().Palette.Variation)
	if err != nil {
		t.Fatalf("NewPalette: %v", err)
	}
	return pal
}

func clusterWithIdentity(id uint32, colorIdx uint8) systems.Cluster {
	return systems.Cluster{Identity: id, Color: colorIdx}
}

func assign(a *SlotAllocator, ids ...uint32) []uint16 {
	clusters := make([]systems.Cluster, len(ids))
	for i, id := range ids {
		clusters[i] = clusterWithIdentity(id, uint8(i%4))
	}
	return a.AssignInto(nil, clusters)
}

func TestSlotStableWhileIdentityLives(t *testing.T) {
	a := NewSlotAllocator(8, 0, testPalette(t))

	first := assign(a, 11, 22, 33)
	for frame := 0; frame < 5; frame++ {
		got := assign(a, 11, 22, 33)
		for i := range got {
			if got[i] != first[i] {
				t.Errorf("frame %d cluster %d: slot changed %d -> %d", frame, i, first[i], got[i])
			}
		}
	}
}

func TestLowestFreeSlotAllocatedFirst(t *testing.T) {
	a := NewSlotAllocator(4, 0, testPalette(t))

	got := assign(a, 100, 200)
	want := []uint16{0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestEvictionPicksLongestAbsent(t *testing.T) {
	a := NewSlotAllocator(2, 0, testPalette(t))

	assign(a, 1, 2) // frame 1: slots 0, 1
	assign(a, 1)    // frame 2: identity 2 goes absent
	got := assign(a, 1, 3)

	if got[1] != 1 {
		t.Errorf("new identity took slot %d, want 1 (longest absent)", got[1])
	}
	if a.Evictions() != 1 {
		t.Errorf("evictions = %d, want 1", a.Evictions())
	}
}

func TestEvictionTieBreaksToLowestSlot(t *testing.T) {
	a := NewSlotAllocator(2, 0, testPalette(t))

	assign(a, 1, 2) // both absent from the next frame on
	got := assign(a, 3)

	if got[0] != 0 {
		t.Errorf("tie eviction chose slot %d, want 0", got[0])
	}
}

func TestOverflowRedirectsExactlyOneToFallback(t *testing.T) {
	a := NewSlotAllocator(4, 0, testPalette(t))

	got := assign(a, 10, 20, 30, 40, 50)
	if len(got) != 5 {
		t.Fatalf("got %d slots, want 5", len(got))
	}

	counts := map[uint16]int{}
	for _, s := range got {
		counts[s]++
	}
	if counts[FallbackSlot] != 2 {
		// Slot 0 is both a normal slot and the fallback target, so the only
		// double booking is the overflowing fifth cluster.
		t.Errorf("fallback slot bound %d times, want 2 (owner + overflow)", counts[FallbackSlot])
	}
	for s := uint16(1); s < 4; s++ {
		if counts[s] != 1 {
			t.Errorf("slot %d bound %d times, want 1", s, counts[s])
		}
	}
	if a.Overflows() != 1 {
		t.Errorf("overflows = %d, want 1", a.Overflows())
	}
}

func TestGraceWindowBlocksEviction(t *testing.T) {
	a := NewSlotAllocator(1, 2, testPalette(t))

	gotA := assign(a, 7)
	gotB := assign(a, 8) // identity 7 absent only 1 frame, inside grace

	if gotA[0] != 0 {
		t.Fatalf("first identity got slot %d, want 0", gotA[0])
	}
	if gotB[0] != FallbackSlot {
		t.Errorf("second identity got slot %d, want fallback while grace holds", gotB[0])
	}
	if a.Overflows() != 1 {
		t.Errorf("overflows = %d, want 1", a.Overflows())
	}
	if a.Evictions() != 0 {
		t.Errorf("evictions = %d, want 0", a.Evictions())
	}

	assign(a, 8) // absent 2 frames: still within grace (needs > grace)
	got := assign(a, 8)
	if got[0] != 0 {
		t.Errorf("after grace expired got slot %d, want 0", got[0])
	}
	if a.Evictions() != 1 {
		t.Errorf("evictions = %d, want 1", a.Evictions())
	}
}

func TestUnboundedModeAppends(t *testing.T) {
	a := NewSlotAllocator(0, 0, testPalette(t))

	ids := []uint32{5, 6, 7, 8, 9, 10}
	got := assign(a, ids...)
	for i := range got {
		if got[i] != uint16(i) {
			t.Errorf("slot[%d] = %d, want %d", i, got[i], i)
		}
	}
	if a.Overflows() != 0 {
		t.Errorf("overflows = %d, want 0", a.Overflows())
	}
	if len(a.Colors()) != len(ids) {
		t.Errorf("colors len = %d, want %d", len(a.Colors()), len(ids))
	}
}

func TestColorsMatchPaletteVariant(t *testing.T) {
	pal := testPalette(t)
	a := NewSlotAllocator(4, 0, pal)

	clusters := []systems.Cluster{
		{Identity: 42, Color: 1},
		{Identity: 43, Color: 2},
	}
	slots := a.AssignInto(nil, clusters)
	colors := a.Colors()

	for i, cl := range clusters {
		want := pal.ColorFor(cl.Color, cl.Identity)
		if colors[slots[i]] != want {
			t.Errorf("cluster %d: slot color %v, want %v", i, colors[slots[i]], want)
		}
	}
}

func TestAssignDeterministicAcrossRuns(t *testing.T) {
	run := func() []uint16 {
		a := NewSlotAllocator(8, 0, testPalette(t))
		assign(a, 1, 2, 3)
		return assign(a, 2, 3, 9)
	}
	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("slot[%d] differs across runs: %d vs %d", i, first[i], second[i])
		}
	}
}
