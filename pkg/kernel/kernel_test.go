package kernel

import "testing"

// quad is two triangles sharing an edge, as the tessellator would emit
// for the end of a flat-capped cylinder.
var quad = &Mesh{
	Vertices: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
	Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
	Indices:  []uint32{0, 1, 2, 2, 3, 0},
	LinkName: "foot",
}

func TestMeshCounts(t *testing.T) {
	tests := []struct {
		name      string
		mesh      *Mesh
		vertices  int
		triangles int
		empty     bool
	}{
		{"zero value", &Mesh{}, 0, 0, true},
		{"lone vertex", &Mesh{Vertices: []float32{1, 2, 3}}, 1, 0, false},
		{"quad", quad, 4, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mesh.VertexCount(); got != tt.vertices {
				t.Errorf("VertexCount() = %d, want %d", got, tt.vertices)
			}
			if got := tt.mesh.TriangleCount(); got != tt.triangles {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.triangles)
			}
			if got := tt.mesh.IsEmpty(); got != tt.empty {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.empty)
			}
		})
	}
}

func TestMeshBounds(t *testing.T) {
	m := &Mesh{Vertices: []float32{1, -2, 3, -1, 4, 0, 0, 0, 7}}
	min, max := m.Bounds()
	if min != [3]float32{-1, -2, 0} {
		t.Errorf("Bounds() min = %v, want [-1 -2 0]", min)
	}
	if max != [3]float32{1, 4, 7} {
		t.Errorf("Bounds() max = %v, want [1 4 7]", max)
	}

	min, max = (&Mesh{}).Bounds()
	if min != [3]float32{} || max != [3]float32{} {
		t.Errorf("empty Bounds() = %v %v, want zero", min, max)
	}
}

type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// stubKernel tracks bounding boxes only. Rotation is ignored.
type stubKernel struct{}

func (k *stubKernel) Sphere(radius float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, -radius},
		maxBB: [3]float64{radius, radius, radius},
	}
}

func (k *stubKernel) Cylinder(height, radius float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, -height / 2},
		maxBB: [3]float64{radius, radius, height / 2},
	}
}

func (k *stubKernel) Union(a, b Solid) Solid {
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	u := &stubSolid{}
	for i := 0; i < 3; i++ {
		u.minBB[i] = min(amin[i], bmin[i])
		u.maxBB[i] = max(amax[i], bmax[i])
	}
	return u
}

func (k *stubKernel) Translate(s Solid, x, y, z float64) Solid {
	lo, hi := s.BoundingBox()
	d := [3]float64{x, y, z}
	for i := range d {
		lo[i] += d[i]
		hi[i] += d[i]
	}
	return &stubSolid{minBB: lo, maxBB: hi}
}

func (k *stubKernel) Rotate(s Solid, _ [3]float64, _ float64) Solid { return s }

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

var _ Kernel = (*stubKernel)(nil)

func TestStubKernelUnionBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Union(k.Sphere(1), k.Translate(k.Cylinder(4, 1), 0, 0, 5))
	lo, hi := s.BoundingBox()
	if lo != [3]float64{-1, -1, -1} {
		t.Errorf("Union min = %v, want [-1 -1 -1]", lo)
	}
	if hi != [3]float64{1, 1, 7} {
		t.Errorf("Union max = %v, want [1 1 7]", hi)
	}
}

func TestStubKernelToMesh(t *testing.T) {
	var k Kernel = &stubKernel{}
	m, err := k.ToMesh(k.Sphere(1))
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if m == nil {
		t.Fatal("ToMesh() returned nil mesh")
	}
	if !m.IsEmpty() {
		t.Error("stub ToMesh() should return empty mesh")
	}
}
