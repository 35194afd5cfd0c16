package camtex

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformSet holds the four 4x4 matrices a frame draw needs. Projection
// and View are fixed for a given surface size; Rotation is recomputed from
// the device orientation every draw; TexTransform is refreshed from the
// frame stream on every consumed frame. No history is retained.
type TransformSet struct {
	Projection   mgl32.Mat4
	View         mgl32.Mat4
	Rotation     mgl32.Mat4
	TexTransform mgl32.Mat4
}

// newTransformSet builds the fixed matrices for a surface of the given
// dimensions. The view is a constant look-at from (0,0,5) toward the origin;
// the projection is a symmetric frustum widened by the aspect ratio.
func newTransformSet(width, height int) TransformSet {
	return TransformSet{
		Projection:   projectionFor(width, height),
		View:         mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}),
		Rotation:     mgl32.Ident4(),
		TexTransform: mgl32.Ident4(),
	}
}

// projectionFor derives the frustum from the surface aspect ratio. The near
// and far planes bracket the fixed camera distance of the view matrix.
func projectionFor(width, height int) mgl32.Mat4 {
	ratio := float32(1)
	if height > 0 {
		ratio = float32(width) / float32(height)
	}
	return mgl32.Frustum(-ratio, ratio, -1, 1, 3, 7)
}

// rotationFor maps a device orientation in degrees to the quad rotation
// matrix. The rotation axis points into the screen (0,0,-1), which bakes in
// the vertical flip that corrects the camera image's top-down row order.
// Orientations outside {0, 90, 180, 270} snap to 0.
func rotationFor(orientationDeg int) mgl32.Mat4 {
	switch orientationDeg {
	case 0, 90, 180, 270:
	default:
		orientationDeg = 0
	}
	return mgl32.HomogRotate3D(mgl32.DegToRad(float32(orientationDeg)), mgl32.Vec3{0, 0, -1})
}

// mvp composes the model-view-projection matrix as projection x rotation x
// view. Deterministic for a fixed orientation and surface size.
func (t *TransformSet) mvp() mgl32.Mat4 {
	return t.Projection.Mul4(t.Rotation).Mul4(t.View)
}

// aspect returns width/height as the shader's uCRatio scalar.
func aspect(width, height int) float32 {
	if height == 0 {
		return 1
	}
	return float32(width) / float32(height)
}
