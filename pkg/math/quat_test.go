package math

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const refTolerance = 1e-12

func toRef(q Quat) mgl64.Quat {
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}
}

func randomQuat(rng *rand.Rand) Quat {
	q := Quat{
		X: rng.Float64()*2 - 1,
		Y: rng.Float64()*2 - 1,
		Z: rng.Float64()*2 - 1,
		W: rng.Float64()*2 - 1,
	}
	return q.Normalize()
}

func randomVec3(rng *rand.Rand) Vec3 {
	return Vec3{
		X: rng.Float64()*20 - 10,
		Y: rng.Float64()*20 - 10,
		Z: rng.Float64()*20 - 10,
	}
}

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("QuatIdentity() = (%v,%v,%v,%v), want (0,0,0,1)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()
	length := math.Sqrt(n.Dot(n))
	if math.Abs(length-1.0) > 1e-12 {
		t.Errorf("Normalize() length = %v, want 1", length)
	}
}

func TestQuatNormalizeDegenerate(t *testing.T) {
	got := Quat{}.Normalize()
	if got != QuatIdentity() {
		t.Errorf("Quat{}.Normalize() = %v, want identity", got)
	}
}

func TestQuatConjugate(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	got := q.Conjugate()
	want := Quat{X: -1, Y: -2, Z: -3, W: 4}
	if got != want {
		t.Errorf("Conjugate() = %v, want %v", got, want)
	}
}

func TestQuatMulAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		a := randomQuat(rng)
		b := randomQuat(rng)
		got := a.Mul(b)
		want := toRef(a).Mul(toRef(b))
		if !mgl64.FloatEqualThreshold(got.W, want.W, refTolerance) ||
			!mgl64.FloatEqualThreshold(got.X, want.V.X(), refTolerance) ||
			!mgl64.FloatEqualThreshold(got.Y, want.V.Y(), refTolerance) ||
			!mgl64.FloatEqualThreshold(got.Z, want.V.Z(), refTolerance) {
			t.Fatalf("Mul() = %v, reference = %v (a=%v b=%v)", got, want, a, b)
		}
	}
}

func TestQuatRotateAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		q := randomQuat(rng)
		v := randomVec3(rng)
		got := q.Rotate(v)
		want := toRef(q).Rotate(mgl64.Vec3{v.X, v.Y, v.Z})
		if !mgl64.FloatEqualThreshold(got.X, want.X(), 1e-9) ||
			!mgl64.FloatEqualThreshold(got.Y, want.Y(), 1e-9) ||
			!mgl64.FloatEqualThreshold(got.Z, want.Z(), 1e-9) {
			t.Fatalf("Rotate() = %v, reference = %v (q=%v v=%v)", got, want, q, v)
		}
	}
}

func TestQuatFromAxisAngleAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		axis := randomVec3(rng).Normalize()
		angle := rng.Float64() * 2 * math.Pi
		got := QuatFromAxisAngle(axis, angle)
		want := mgl64.QuatRotate(angle, mgl64.Vec3{axis.X, axis.Y, axis.Z})
		if !mgl64.FloatEqualThreshold(got.W, want.W, refTolerance) ||
			!mgl64.FloatEqualThreshold(got.X, want.V.X(), refTolerance) ||
			!mgl64.FloatEqualThreshold(got.Y, want.V.Y(), refTolerance) ||
			!mgl64.FloatEqualThreshold(got.Z, want.V.Z(), refTolerance) {
			t.Fatalf("QuatFromAxisAngle() = %v, reference = %v", got, want)
		}
	}
}

func TestQuatConjugateInvertsRotation(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 100; i++ {
		q := randomQuat(rng)
		v := randomVec3(rng)
		back := q.Conjugate().Rotate(q.Rotate(v))
		if math.Abs(back.X-v.X) > 1e-9 || math.Abs(back.Y-v.Y) > 1e-9 || math.Abs(back.Z-v.Z) > 1e-9 {
			t.Fatalf("conj(q).Rotate(q.Rotate(v)) = %v, want %v", back, v)
		}
	}
}

func TestQuatMulComposesRotations(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		a := randomQuat(rng)
		b := randomQuat(rng)
		v := randomVec3(rng)
		composed := a.Mul(b).Rotate(v)
		sequential := a.Rotate(b.Rotate(v))
		if math.Abs(composed.X-sequential.X) > 1e-9 ||
			math.Abs(composed.Y-sequential.Y) > 1e-9 ||
			math.Abs(composed.Z-sequential.Z) > 1e-9 {
			t.Fatalf("a.Mul(b).Rotate(v) = %v, a.Rotate(b.Rotate(v)) = %v", composed, sequential)
		}
	}
}
