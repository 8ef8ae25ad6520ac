package tracking

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/gesturefield/internal/detector"
)

// Landmarks is a full stabilized hand.
type Landmarks = [detector.NumLandmarks]Landmark

var palmJoints = [...]int{
	detector.Wrist,
	detector.IndexMCP,
	detector.MiddleMCP,
	detector.RingMCP,
	detector.PinkyMCP,
}

var polygonJoints = [...]int{
	detector.Wrist,
	detector.ThumbCMC,
	detector.ThumbMCP,
	detector.IndexMCP,
	detector.MiddleMCP,
	detector.RingMCP,
	detector.PinkyMCP,
}

// PalmCenter is the mean of the wrist and the four finger MCP joints.
func PalmCenter(lm *Landmarks) r3.Vec {
	var sum r3.Vec
	for _, i := range palmJoints {
		sum = r3.Add(sum, lm[i].Position)
	}
	return r3.Scale(1/float64(len(palmJoints)), sum)
}

// PalmPolygon returns the outline of the solid palm: wrist, thumb CMC and
// MCP, then the index to pinky MCP joints.
func PalmPolygon(lm *Landmarks) []r2.Vec {
	poly := make([]r2.Vec, 0, len(polygonJoints))
	for _, i := range polygonJoints {
		poly = append(poly, XY(lm[i].Position))
	}
	return poly
}

// HandScale is the wrist to middle fingertip distance.
func HandScale(lm *Landmarks) float64 {
	return r3.Norm(r3.Sub(lm[detector.MiddleTip].Position, lm[detector.Wrist].Position))
}

// Depth is the mean z of all landmarks.
func Depth(lm *Landmarks) float64 {
	var sum float64
	for i := range lm {
		sum += lm[i].Position.Z
	}
	return sum / detector.NumLandmarks
}

// XY drops the depth component.
func XY(v r3.Vec) r2.Vec {
	return r2.Vec{X: v.X, Y: v.Y}
}
