// Package components defines ECS components for the demo.
package components

// Position is a ball's world position.
type Position struct {
	X, Y float32
}

// Velocity is a ball's velocity in world units per second.
type Velocity struct {
	X, Y float32
}

// Body holds physical properties of a ball.
type Body struct {
	Radius float32
}

// Paint is the ball's color family. Clustering never merges balls with
// different color indices.
type Paint struct {
	ColorIndex uint8
}

// Shape selects the distance field atlas entry that masks the ball's field
// contribution. Index 0 is the analytic circle and needs no atlas.
type Shape struct {
	Index uint16
}

// ClusterTag carries the stable cluster identity the ball belonged to on the
// previous frame. Zero means untagged; identities start at 1.
type ClusterTag struct {
	ID uint32
}

// Ball holds identity and bookkeeping for a spawned ball.
type Ball struct {
	ID       uint32 // Stable per-ball id, keys side state kept outside the ECS
	BornTick int64
}
