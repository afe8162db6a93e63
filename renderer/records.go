package renderer

import "github.com/ahammer/metalrain/systems"

// NoSlot is the slot lane value for "no cluster". It doubles as the hard
// ceiling on slot indices: an allocator may never hand out NoSlot itself.
const NoSlot uint16 = 0xFFFF

// RenderRecord is one ball prepared for field evaluation: screen-space
// center and field radius, plus shape and slot packed into a single word.
type RenderRecord struct {
	X, Y   float32
	Radius float32
	Packed uint32
}

// PackShapeSlot packs the shape index into the high 16 bits and the palette
// slot into the low 16.
func PackShapeSlot(shape, slot uint16) uint32 {
	return uint32(shape)<<16 | uint32(slot)
}

// Shape returns the shape lane of the packed word.
func (r *RenderRecord) Shape() uint16 { return uint16(r.Packed >> 16) }

// Slot returns the slot lane of the packed word.
func (r *RenderRecord) Slot() uint16 { return uint16(r.Packed) }

// BuildRecordsInto flattens clustered balls into render records, appending
// to dst and returning the extended slice. The view transform maps world to
// screen as (world - origin) * zoom, with origin the world position of the
// screen's top-left corner. radiusScale converts physics radii to field
// radii so the iso contour lands on the physical edge of each ball.
//
// slots[i] is the palette slot assigned to clusters[i]. Balls outside every
// cluster never occur: the partition covers all balls, singles included.
func BuildRecordsInto(dst []RenderRecord, balls []systems.BallSnap, clusters []systems.Cluster, slots []uint16, originX, originY, zoom, radiusScale float32) []RenderRecord {
	for ci := range clusters {
		packedSlot := slots[ci]
		for _, m := range clusters[ci].Members {
			b := &balls[m]
			dst = append(dst, RenderRecord{
				X:      (b.X - originX) * zoom,
				Y:      (b.Y - originY) * zoom,
				Radius: b.Radius * radiusScale * zoom,
				Packed: PackShapeSlot(b.Shape, packedSlot),
			})
		}
	}
	return dst
}
