package systems

import (
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/ahammer/metalrain/config"
)

// BallSnap is one row of the per-frame snapshot the clustering engine
// consumes. PrevTag is the cluster identity the ball carried last frame
// (0 = untagged).
type BallSnap struct {
	X, Y    float32
	Radius  float32
	Color   uint8
	Shape   uint16
	PrevTag uint32
}

// Cluster groups same-color balls that sit within merge distance of each
// other, directly or through a chain. Clusters are rebuilt from scratch every
// frame; Identity is the only value that survives, carried by the tags
// written back to members.
type Cluster struct {
	Members  []int32 // snapshot indices, ascending
	Color    uint8
	Identity uint32

	CentroidX float32 // area-weighted
	CentroidY float32
	MinX      float32 // bounding box of member circles
	MinY      float32
	MaxX      float32
	MaxY      float32
	Area      float32 // sum of pi*r^2
}

// Valid range for the merge buffer. Values outside are clamped at read time.
const (
	MinDistanceBuffer = 1.0
	MaxDistanceBuffer = 3.0
)

var bufferClampWarn sync.Once

// EffectiveBuffer returns clustering.distance_buffer clamped to its valid
// range. The configured value is left untouched; the first out-of-range read
// logs a warning.
func EffectiveBuffer() float32 {
	v := config.Cfg().Clustering.DistanceBuffer
	c := v
	if !(c >= MinDistanceBuffer) { // also catches NaN
		c = MinDistanceBuffer
	} else if c > MaxDistanceBuffer {
		c = MaxDistanceBuffer
	}
	if c != v {
		bufferClampWarn.Do(func() {
			slog.Warn("clustering.distance_buffer out of range, clamped",
				"configured", v, "clamped", c)
		})
	}
	return float32(c)
}

// BuildClusters partitions the snapshot into clusters. Two balls merge when
// they share a color index and their centers are within
// (r_i + r_j) * buffer. The partition depends only on the snapshot and the
// buffer, never on iteration order or prior frames; the returned slice is
// ordered by each cluster's first member index.
func BuildClusters(balls []BallSnap, grid *ClusterGrid, buffer float32) []Cluster {
	if len(balls) == 0 {
		return nil
	}

	uf := newUnionFind(len(balls))
	scratch := make([]int32, 0, 64)

	for i := range balls {
		b := &balls[i]
		scratch = grid.CandidatesInto(scratch[:0], b.X, b.Y)
		for _, j := range scratch {
			if int(j) <= i {
				continue // each pair once
			}
			o := &balls[j]
			if o.Color != b.Color {
				continue // color gate before any distance work
			}
			dx := o.X - b.X
			dy := o.Y - b.Y
			reach := (b.Radius + o.Radius) * buffer
			if dx*dx+dy*dy <= reach*reach {
				uf.union(int32(i), j)
			}
		}
	}

	// Gather members by root. Iterating ascending makes member lists sorted
	// and orders clusters by first member.
	idxOf := make(map[int32]int, 16)
	clusters := make([]Cluster, 0, 16)
	weight := make([]float32, 0, 16) // centroid weight sums, parallel to clusters

	for i := range balls {
		root := uf.find(int32(i))
		ci, ok := idxOf[root]
		if !ok {
			ci = len(clusters)
			idxOf[root] = ci
			clusters = append(clusters, Cluster{
				Color: balls[i].Color,
				MinX:  float32(math.Inf(1)),
				MinY:  float32(math.Inf(1)),
				MaxX:  float32(math.Inf(-1)),
				MaxY:  float32(math.Inf(-1)),
			})
			weight = append(weight, 0)
		}

		b := &balls[i]
		cl := &clusters[ci]
		cl.Members = append(cl.Members, int32(i))

		w := b.Radius * b.Radius
		weight[ci] += w
		cl.CentroidX += b.X * w
		cl.CentroidY += b.Y * w
		cl.Area += math.Pi * w

		if b.X-b.Radius < cl.MinX {
			cl.MinX = b.X - b.Radius
		}
		if b.Y-b.Radius < cl.MinY {
			cl.MinY = b.Y - b.Radius
		}
		if b.X+b.Radius > cl.MaxX {
			cl.MaxX = b.X + b.Radius
		}
		if b.Y+b.Radius > cl.MaxY {
			cl.MaxY = b.Y + b.Radius
		}
	}

	for ci := range clusters {
		if weight[ci] > 0 {
			clusters[ci].CentroidX /= weight[ci]
			clusters[ci].CentroidY /= weight[ci]
		}
	}

	return clusters
}

// ResolveIdentities assigns each cluster its stable identity: the majority
// vote over member tags, ties broken toward the lowest tag. A cluster with no
// tagged members, or whose winning tag was already claimed by an earlier
// cluster this frame (a split), mints a fresh identity from next. The slice
// is re-sorted by identity ascending, the order slot assignment expects.
func ResolveIdentities(clusters []Cluster, balls []BallSnap, next *uint32) {
	if *next == 0 {
		*next = 1 // identities start at 1; 0 means untagged
	}

	taken := make(map[uint32]bool, len(clusters))
	votes := make(map[uint32]int, 8)

	for ci := range clusters {
		cl := &clusters[ci]

		clear(votes)
		for _, m := range cl.Members {
			if t := balls[m].PrevTag; t != 0 {
				votes[t]++
			}
		}

		var bestTag uint32
		bestN := 0
		for t, n := range votes {
			if n > bestN || (n == bestN && (bestTag == 0 || t < bestTag)) {
				bestTag, bestN = t, n
			}
		}

		if bestTag == 0 || taken[bestTag] {
			bestTag = *next
			*next++
		}
		taken[bestTag] = true
		cl.Identity = bestTag
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Identity < clusters[j].Identity
	})
}

// unionFind is a disjoint-set forest with union by rank and path compression.
type unionFind struct {
	parent []int32
	rank   []uint8
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int32, n),
		rank:   make([]uint8, n),
	}
	for i := range uf.parent {
		uf.parent[i] = int32(i)
	}
	return uf
}

func (u *unionFind) find(i int32) int32 {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]] // path halving
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int32) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
