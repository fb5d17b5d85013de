package mesh

import (
	stdmath "math"

	"github.com/skelmesh/actorx/pkg/math"
	"github.com/skelmesh/actorx/pkg/psk"
)

// Assemble builds a mesh from a file's record tables.
//
// Face wedge triples are consumed in reverse to flip the stored
// winding into output order, and V flips to a bottom-left origin.
// Faces resolving to fewer than three distinct vertices are dropped
// with a warning, along with their slots in every per-corner stream,
// so the streams stay parallel to the surviving triangles.
func Assemble(f *psk.File, opts Options) (*Mesh, Warnings, error) {
	var warns Warnings
	if err := f.Validate(); err != nil {
		return nil, warns, err
	}

	m := &Mesh{
		Positions: make([]math.Vec3, len(f.Points)),
		Materials: make([]string, len(f.Materials)),
	}
	for i, p := range f.Points {
		m.Positions[i] = math.Vec3{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
	}
	for i := range f.Materials {
		m.Materials[i] = f.MaterialName(i)
	}

	extraChannels := 0
	if opts.ExtraUVs {
		extraChannels = f.ExtraUVChannelCount()
	}
	m.ExtraUVs = make([][]Corner, extraChannels)

	var kept []int
	for fi := range f.Faces {
		face := &f.Faces[fi]
		w := [3]uint32{face.WedgeIndex[2], face.WedgeIndex[1], face.WedgeIndex[0]}
		v := [3]int{
			int(f.Wedges[w[0]].PointIndex),
			int(f.Wedges[w[1]].PointIndex),
			int(f.Wedges[w[2]].PointIndex),
		}
		if v[0] == v[1] || v[1] == v[2] || v[0] == v[2] {
			warns.DegenerateFaces = append(warns.DegenerateFaces, fi)
			continue
		}

		m.Triangles = append(m.Triangles, Triangle{
			Vertices:  v,
			Material:  int(face.MaterialIndex),
			Smoothing: face.SmoothingGroups,
		})
		m.UVs = append(m.UVs, Corner{
			wedgeUV(&f.Wedges[w[0]]),
			wedgeUV(&f.Wedges[w[1]]),
			wedgeUV(&f.Wedges[w[2]]),
		})
		for c := 0; c < extraChannels; c++ {
			ch := f.ExtraUVChannel(c)
			m.ExtraUVs[c] = append(m.ExtraUVs[c], Corner{
				extraUV(ch[w[0]]),
				extraUV(ch[w[1]]),
				extraUV(ch[w[2]]),
			})
		}
		kept = append(kept, fi)
	}

	if opts.VertexColors && len(f.Colors) > 0 {
		m.Colors = resolveColors(f, kept, opts.ColorSpace, &warns)
	}
	if opts.VertexNormals && len(f.Normals) > 0 {
		m.Normals = make([]math.Vec3, len(f.Normals))
		for i, n := range f.Normals {
			m.Normals[i] = math.Vec3{X: float64(n.X), Y: float64(n.Y), Z: float64(n.Z)}
		}
	}

	m.Groups = weightGroups(f)
	return m, warns, nil
}

// wedgeUV flips V so the origin moves to the bottom left.
func wedgeUV(w *psk.Wedge) math.Vec2 {
	return math.Vec2{X: float64(w.U), Y: 1 - float64(w.V)}
}

func extraUV(uv psk.ExtraUV) math.Vec2 {
	return math.Vec2{X: float64(uv.U), Y: 1 - float64(uv.V)}
}

// resolveColors flattens per-wedge colors into per-vertex colors.
// Only wedges of surviving faces contribute, walked in the same order
// the corner streams were built. The first color seen for a vertex
// wins; later disagreement flags the vertex ambiguous once.
func resolveColors(f *psk.File, kept []int, space ColorSpace, warns *Warnings) []Color {
	stored := make([]psk.Color, len(f.Points))
	seen := make([]bool, len(f.Points))
	flagged := make([]bool, len(f.Points))

	for _, fi := range kept {
		face := &f.Faces[fi]
		for i := 2; i >= 0; i-- {
			w := face.WedgeIndex[i]
			vert := int(f.Wedges[w].PointIndex)
			c := f.Colors[w]
			switch {
			case !seen[vert]:
				stored[vert] = c
				seen[vert] = true
			case c != stored[vert] && !flagged[vert]:
				warns.AmbiguousColors = append(warns.AmbiguousColors, vert)
				flagged[vert] = true
			}
		}
	}

	out := make([]Color, len(f.Points))
	for i, c := range stored {
		col := Color{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
			A: float64(c.A) / 255,
		}
		if space == ColorSpaceSRGB {
			col.R = srgbToLinear(col.R)
			col.G = srgbToLinear(col.G)
			col.B = srgbToLinear(col.B)
		}
		out[i] = col
	}
	return out
}

// srgbToLinear converts one sRGB channel to linear light. Alpha is
// never converted.
func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return stdmath.Pow((c+0.055)/1.055, 2.4)
}

// weightGroups buckets the weight table by bone, keeping table order
// inside each group. Weights pass through unnormalized; scaling them
// to sum to one is the target runtime's concern.
func weightGroups(f *psk.File) []WeightGroup {
	buckets := make([][]VertexWeight, len(f.Bones))
	for _, wt := range f.Weights {
		b := int(wt.BoneIndex)
		buckets[b] = append(buckets[b], VertexWeight{
			Vertex: int(wt.PointIndex),
			Weight: float64(wt.Weight),
		})
	}

	var groups []WeightGroup
	for b, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		groups = append(groups, WeightGroup{Bone: b, Name: f.BoneName(b), Weights: bucket})
	}
	return groups
}
