package sdfx

import (
	"math"
	"testing"
)

// checkBounds compares a solid's bounding box against want within tol.
func checkBounds(t *testing.T, min, max, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], wantMax[i])
		}
	}
}

func TestSphere(t *testing.T) {
	k := New()
	mesh, err := k.ToMesh(k.Sphere(5))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() || mesh.TriangleCount() == 0 {
		t.Fatal("sphere mesh is empty")
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
	min, max := mesh.Bounds()
	for i := 0; i < 3; i++ {
		if min[i] < -5.5 || max[i] > 5.5 {
			t.Errorf("sphere vertex bounds %v %v exceed radius", min, max)
		}
	}
}

func TestCylinder(t *testing.T) {
	k := New()
	cyl := k.Cylinder(50, 10)
	min, max := cyl.BoundingBox()
	checkBounds(t, min, max, [3]float64{-10, -10, -25}, [3]float64{10, 10, 25}, 0.01)

	mesh, err := k.ToMesh(cyl)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	t.Logf("cylinder triangle count: %d", mesh.TriangleCount())
}

func TestUnion(t *testing.T) {
	k := New()
	u := k.Union(k.Sphere(1), k.Translate(k.Sphere(1), 3, 0, 0))
	min, max := u.BoundingBox()
	checkBounds(t, min, max, [3]float64{-1, -1, -1}, [3]float64{4, 1, 1}, 0.01)

	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	moved := k.Translate(k.Sphere(5), 100, 200, 300)
	min, max := moved.BoundingBox()
	checkBounds(t, min, max, [3]float64{95, 195, 295}, [3]float64{105, 205, 305}, 0.5)
}

func TestRotate(t *testing.T) {
	k := New()
	rod := k.Cylinder(100, 5)

	// A rod along Z rotated 90 degrees about Y should extend along X instead.
	rotated := k.Rotate(rod, [3]float64{0, 1, 0}, math.Pi/2)
	min, max := rotated.BoundingBox()

	const tol = 1.0
	if x := max[0] - min[0]; math.Abs(x-100) > tol {
		t.Errorf("rotated X extent = %f, expected ~100", x)
	}
	if z := max[2] - min[2]; math.Abs(z-10) > tol {
		t.Errorf("rotated Z extent = %f, expected ~10", z)
	}

	if same := k.Rotate(rod, [3]float64{}, 1); same != rod {
		t.Error("zero axis rotation should return the solid unchanged")
	}
}

func TestEulerZYX(t *testing.T) {
	tests := []struct {
		name       string
		axis       [3]float64
		angle      float64
		wx, wy, wz float64
	}{
		{"about x", [3]float64{1, 0, 0}, 0.3, 0.3, 0, 0},
		{"about z", [3]float64{0, 0, 1}, math.Pi / 2, 0, 0, math.Pi / 2},
		{"gimbal y", [3]float64{0, 1, 0}, math.Pi / 2, 0, math.Pi / 2, 0},
		{"negative y", [3]float64{0, 1, 0}, -0.4, 0, -0.4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, z := eulerZYX(tt.axis[0], tt.axis[1], tt.axis[2], tt.angle)
			if math.Abs(x-tt.wx) > 1e-9 || math.Abs(y-tt.wy) > 1e-9 || math.Abs(z-tt.wz) > 1e-9 {
				t.Errorf("eulerZYX = (%v, %v, %v), want (%v, %v, %v)", x, y, z, tt.wx, tt.wy, tt.wz)
			}
		})
	}
}

func TestMeshCellsOption(t *testing.T) {
	if got := New().MeshCells(); got != DefaultMeshCells {
		t.Errorf("default cells = %d, want %d", got, DefaultMeshCells)
	}
	if got := New(WithMeshCells(2)).MeshCells(); got != 8 {
		t.Errorf("clamped cells = %d, want 8", got)
	}
	if got := New(WithMeshCells(100)).MeshCells(); got != 100 {
		t.Errorf("cells = %d, want 100", got)
	}
}
