// Package overlay draws the field and per-hand state onto preview frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/gesturefield/internal/field"
	"github.com/ayusman/gesturefield/internal/pipeline"
	"github.com/ayusman/gesturefield/internal/tracking"
)

// Colors used for each element.
var (
	ColorNormal   = color.RGBA{R: 60, G: 200, B: 90, A: 255}
	ColorPending  = color.RGBA{R: 240, G: 190, B: 40, A: 255}
	ColorMoving   = color.RGBA{R: 60, G: 140, B: 255, A: 255}
	ColorPalm     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ColorLandmark = color.RGBA{R: 255, G: 80, B: 80, A: 255}
	ColorTarget   = color.RGBA{R: 255, G: 0, B: 200, A: 255}
)

const (
	ringRadius    = 40
	ringThickness = 4
)

// ModeColor returns the field outline color for mode.
func ModeColor(mode field.Mode) color.RGBA {
	switch mode {
	case field.ModeMovePending:
		return ColorPending
	case field.ModeMoving:
		return ColorMoving
	default:
		return ColorNormal
	}
}

// Renderer maps viewport coordinates onto frame pixels and draws.
type Renderer struct {
	viewport tracking.Viewport
}

// NewRenderer creates a Renderer for frames produced in viewport space.
func NewRenderer(viewport tracking.Viewport) *Renderer {
	return &Renderer{viewport: viewport}
}

// SetViewport changes the viewport the frames are expressed in.
func (r *Renderer) SetViewport(viewport tracking.Viewport) {
	r.viewport = viewport
}

// scale returns the viewport to image factors.
func (r *Renderer) scale(img *gocv.Mat) (float64, float64) {
	if r.viewport.Width <= 0 || r.viewport.Height <= 0 {
		return 1, 1
	}
	return float64(img.Cols()) / r.viewport.Width, float64(img.Rows()) / r.viewport.Height
}

// ToPixel converts a viewport position to an image point.
func (r *Renderer) ToPixel(img *gocv.Mat, p r2.Vec) image.Point {
	sx, sy := r.scale(img)
	return image.Pt(int(math.Round(p.X*sx)), int(math.Round(p.Y*sy)))
}

// FieldRect converts field bounds to an image rectangle.
func (r *Renderer) FieldRect(img *gocv.Mat, b field.Bounds) image.Rectangle {
	return image.Rectangle{
		Min: r.ToPixel(img, r2.Vec{X: b.X, Y: b.Y}),
		Max: r.ToPixel(img, r2.Vec{X: b.Right(), Y: b.Bottom()}),
	}
}

// Draw renders f onto img in place.
func (r *Renderer) Draw(img *gocv.Mat, f *pipeline.Frame) {
	if img == nil || img.Empty() || f == nil {
		return
	}

	fieldColor := ModeColor(f.Field.Mode)
	gocv.Rectangle(img, r.FieldRect(img, f.Field.Bounds), fieldColor, 3)

	for i := range f.Hands {
		r.drawHand(img, &f.Hands[i])
	}

	if hand, ok := f.DominantHand(); ok && f.Field.Mode == field.ModeMovePending {
		r.drawProgress(img, hand.PalmCenter.X, hand.PalmCenter.Y, f.Field.Progress)
	}

	label := string(f.Field.Mode)
	if f.Field.Mode == field.ModeMovePending {
		label = fmt.Sprintf("%s %d%%", label, int(f.Field.Progress*100))
	}
	gocv.PutText(img, label, image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, fieldColor, 2)
}

func (r *Renderer) drawHand(img *gocv.Mat, h *pipeline.HandSnapshot) {
	if len(h.PalmPolygon) > 2 {
		pts := make([]image.Point, len(h.PalmPolygon))
		for i, p := range h.PalmPolygon {
			pts[i] = r.ToPixel(img, p)
		}
		pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
		gocv.Polylines(img, pv, true, ColorPalm, 2)
		pv.Close()
	}

	for _, lm := range h.Landmarks {
		if !lm.Visible {
			continue
		}
		gocv.Circle(img, r.ToPixel(img, r2.Vec{X: lm.Position.X, Y: lm.Position.Y}), 3, ColorLandmark, -1)
	}

	if h.Pointing && h.PointingTarget != nil {
		gocv.Circle(img, r.ToPixel(img, *h.PointingTarget), 10, ColorTarget, 2)
	}
}

// drawProgress draws the hold ring as an arc clockwise from 12 o'clock.
func (r *Renderer) drawProgress(img *gocv.Mat, x, y, progress float64) {
	center := r.ToPixel(img, r2.Vec{X: x, Y: y})
	axes := image.Pt(ringRadius, ringRadius)
	end := 360 * math.Max(0, math.Min(1, progress))

	gocv.Ellipse(img, center, axes, -90, 0, 360, color.RGBA{R: 80, G: 80, B: 80, A: 255}, ringThickness)
	if end > 0 {
		gocv.Ellipse(img, center, axes, -90, 0, end, ColorPending, ringThickness)
	}
}

// EncodeJPEG encodes img at quality and returns a copy of the bytes.
func EncodeJPEG(img *gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *img, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	defer buf.Close()

	src := buf.GetBytes()
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}
