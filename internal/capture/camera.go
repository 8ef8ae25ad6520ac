// Package capture reads preview frames from a camera with GoCV and decides
// how fast to read them.
package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrCameraNotOpen is returned when reading from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Config holds camera and frame rate settings.
type Config struct {
	DeviceID        int           `mapstructure:"device_id"`
	Width           int           `mapstructure:"width"`
	Height          int           `mapstructure:"height"`
	IdleFPS         int           `mapstructure:"idle_fps"`         // Rate with no motion and no hands
	ActiveFPS       int           `mapstructure:"active_fps"`       // Rate while something moves
	MotionThreshold float64       `mapstructure:"motion_threshold"` // Percent of pixels that must change
	IdleAfter       time.Duration `mapstructure:"idle_after"`       // Quiet time before dropping to IdleFPS
}

// DefaultConfig returns the default camera configuration.
func DefaultConfig() Config {
	return Config{
		DeviceID:        0,
		Width:           1280,
		Height:          720,
		IdleFPS:         5,
		ActiveFPS:       30,
		MotionThreshold: 1.0,
		IdleAfter:       2 * time.Second,
	}
}

// Camera is a frame source.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

type deviceCamera struct {
	config  Config
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera creates a Camera for config.DeviceID. It starts at the idle rate.
func NewCamera(config Config) Camera {
	fps := config.IdleFPS
	if fps <= 0 {
		fps = DefaultConfig().IdleFPS
	}
	return &deviceCamera{config: config, fps: fps}
}

// Open opens the device and requests the configured resolution.
func (c *deviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.config.DeviceID)
	if err != nil {
		return fmt.Errorf("opening camera %d: %w", c.config.DeviceID, err)
	}

	if c.config.Width > 0 && c.config.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	}
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true
	return nil
}

func (c *deviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false
	return err
}

// ReadFrame reads one frame. The caller closes the returned Mat.
func (c *deviceCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}
	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}
	return &mat, nil
}

// SetFPS changes the capture rate. Non-positive values are ignored.
func (c *deviceCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps
	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *deviceCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *deviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
