package renderer

import (
	"image/color"
	"log/slog"
	"sync"

	"github.com/ahammer/metalrain/systems"
)

// FallbackSlot receives clusters that cannot be bound when every slot is
// occupied by an identity seen this frame. It is an ordinary slot otherwise;
// overflow clusters simply alias its color.
const FallbackSlot = 0

// maxSlots is the hard ceiling even in unbounded mode, imposed by the 16-bit
// slot lane of the packed render record (0xFFFF is the no-cluster sentinel).
const maxSlots = 0xFFFF

// slotBinding is one palette slot's current owner.
type slotBinding struct {
	identity uint32
	lastSeen int64 // frame the identity was last assigned
	color    color.RGBA
	inUse    bool
}

// SlotAllocator maps stable cluster identities to palette slots. An identity
// keeps its slot while it stays alive, so cluster colors never flicker when
// membership or ordering churns. Bounded mode recycles slots from identities
// absent past the grace window; unbounded mode only ever appends.
type SlotAllocator struct {
	capacity int // 0 = unbounded
	grace    int64
	palette  *Palette

	slots []slotBinding
	byID  map[uint32]uint16
	frame int64

	overflowWarn sync.Once
	evictions    uint64
	overflows    uint64

	colorBuf []color.RGBA
}

// NewSlotAllocator creates an allocator. capacity 0 means unbounded.
func NewSlotAllocator(capacity, graceFrames int, pal *Palette) *SlotAllocator {
	a := &SlotAllocator{
		capacity: capacity,
		grace:    int64(graceFrames),
		palette:  pal,
		byID:     make(map[uint32]uint16),
	}
	if capacity > 0 {
		a.slots = make([]slotBinding, capacity)
	}
	return a
}

// AssignInto advances one frame and maps each cluster to a slot, appending to
// dst. clusters must be ordered by identity ascending, which ResolveIdentities
// guarantees. Reuse dst across frames to avoid allocations.
func (a *SlotAllocator) AssignInto(dst []uint16, clusters []systems.Cluster) []uint16 {
	a.frame++
	for i := range clusters {
		dst = append(dst, a.assignOne(&clusters[i]))
	}
	return dst
}

func (a *SlotAllocator) assignOne(cl *systems.Cluster) uint16 {
	if slot, ok := a.byID[cl.Identity]; ok {
		a.slots[slot].lastSeen = a.frame
		return slot
	}

	if a.capacity == 0 {
		if len(a.slots) < maxSlots {
			slot := uint16(len(a.slots))
			a.slots = append(a.slots, a.bind(cl))
			a.byID[cl.Identity] = slot
			return slot
		}
		return a.overflow()
	}

	// Lowest free slot first.
	for s := range a.slots {
		if !a.slots[s].inUse {
			a.slots[s] = a.bind(cl)
			a.byID[cl.Identity] = uint16(s)
			return uint16(s)
		}
	}

	// Evict the identity absent longest, past the grace window. Ties break to
	// the lowest slot index.
	evict := -1
	var bestAbsent int64
	for s := range a.slots {
		absent := a.frame - a.slots[s].lastSeen
		if absent > a.grace && absent > bestAbsent {
			evict = s
			bestAbsent = absent
		}
	}
	if evict >= 0 {
		old := a.slots[evict].identity
		delete(a.byID, old)
		a.evictions++
		slog.Debug("palette slot evicted",
			"slot", evict, "evicted_identity", old, "new_identity", cl.Identity,
			"absent_frames", bestAbsent)
		a.slots[evict] = a.bind(cl)
		a.byID[cl.Identity] = uint16(evict)
		return uint16(evict)
	}

	return a.overflow()
}

func (a *SlotAllocator) bind(cl *systems.Cluster) slotBinding {
	return slotBinding{
		identity: cl.Identity,
		lastSeen: a.frame,
		color:    a.palette.ColorFor(cl.Color, cl.Identity),
		inUse:    true,
	}
}

// overflow redirects a cluster to the fallback slot when no slot can be
// freed. Visuals degrade to color aliasing; rendering continues.
func (a *SlotAllocator) overflow() uint16 {
	a.overflows++
	a.overflowWarn.Do(func() {
		slog.Warn("palette capacity exceeded; aliasing overflow clusters to the fallback slot",
			"capacity", a.capacity)
	})
	return FallbackSlot
}

// Colors returns the slot color table indexed by slot. The evaluator indexes
// it millions of times per frame, so it is a flat slice rather than method
// calls. The slice is reused; callers must not retain it across frames.
func (a *SlotAllocator) Colors() []color.RGBA {
	if cap(a.colorBuf) < len(a.slots) {
		a.colorBuf = make([]color.RGBA, len(a.slots))
	}
	a.colorBuf = a.colorBuf[:len(a.slots)]
	for s := range a.slots {
		a.colorBuf[s] = a.slots[s].color
	}
	return a.colorBuf
}

// InUse returns how many slots are currently bound to an identity.
func (a *SlotAllocator) InUse() int {
	n := 0
	for s := range a.slots {
		if a.slots[s].inUse {
			n++
		}
	}
	return n
}

// Evictions returns the lifetime eviction count.
func (a *SlotAllocator) Evictions() uint64 { return a.evictions }

// Overflows returns the lifetime fallback redirect count.
func (a *SlotAllocator) Overflows() uint64 { return a.overflows }
