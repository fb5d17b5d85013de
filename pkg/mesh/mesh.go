// Package mesh assembles renderable topology and attributes from the
// flat record tables of a skeletal mesh file.
package mesh

import "github.com/skelmesh/actorx/pkg/math"

// ColorSpace names how stored vertex colors are interpreted.
type ColorSpace string

const (
	// ColorSpaceSRGB converts resolved colors to linear on assembly.
	ColorSpaceSRGB ColorSpace = "srgb"
	// ColorSpaceLinear passes resolved colors through unchanged.
	ColorSpaceLinear ColorSpace = "linear"
)

// Options select which optional attribute streams are assembled.
type Options struct {
	// VertexColors resolves per-wedge colors into per-vertex colors.
	VertexColors bool
	// ColorSpace applies to resolved colors only.
	ColorSpace ColorSpace
	// ExtraUVs assembles the additional UV channels.
	ExtraUVs bool
	// VertexNormals copies the per-point normals.
	VertexNormals bool
}

// DefaultOptions enables every attribute stream the file carries,
// with colors kept in their stored space.
func DefaultOptions() Options {
	return Options{
		VertexColors:  true,
		ColorSpace:    ColorSpaceLinear,
		ExtraUVs:      true,
		VertexNormals: true,
	}
}

// Triangle is one output face: vertex indices in output winding
// order and the material slot it binds.
type Triangle struct {
	Vertices  [3]int
	Material  int
	Smoothing uint32
}

// Corner holds one per-corner attribute triple, parallel to a
// Triangle's vertices.
type Corner [3]math.Vec2

// Color is a resolved RGBA vertex color with channels in [0, 1].
type Color struct {
	R, G, B, A float64
}

// VertexWeight binds one vertex to the owning group's bone.
type VertexWeight struct {
	Vertex int
	Weight float64
}

// WeightGroup collects every weighted vertex of one bone.
type WeightGroup struct {
	Bone    int
	Name    string
	Weights []VertexWeight
}

// Mesh is the assembled output. UVs and ExtraUVs run parallel to
// Triangles; degenerate input faces appear in neither.
type Mesh struct {
	Positions []math.Vec3
	Triangles []Triangle
	UVs       []Corner
	// ExtraUVs holds one per-triangle corner stream per extra channel.
	ExtraUVs [][]Corner
	// Colors is per vertex, empty unless requested and present.
	Colors []Color
	// Normals is per vertex, empty unless requested and present.
	Normals []math.Vec3
	// Groups holds the bone weight groups, ascending by bone index.
	// Bones without weights have no group.
	Groups []WeightGroup
	// Materials is the decoded material name table.
	Materials []string
}

// UniformShading reports whether imported normals override the
// faces' smoothing groups, forcing uniformly smooth shading.
func (m *Mesh) UniformShading() bool {
	return len(m.Normals) > 0
}

// Warnings reports recoverable defects found during assembly. The
// offending elements are excluded from the output rather than
// failing the whole mesh.
type Warnings struct {
	// DegenerateFaces lists input face indices whose wedges resolve
	// to fewer than three distinct vertices.
	DegenerateFaces []int
	// AmbiguousColors lists vertex indices whose wedges disagree on
	// color; the first color seen wins.
	AmbiguousColors []int
}

// Empty reports whether assembly produced no warnings.
func (w *Warnings) Empty() bool {
	return len(w.DegenerateFaces) == 0 && len(w.AmbiguousColors) == 0
}
