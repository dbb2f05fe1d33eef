// Package vision samples camera frames at a fixed rate and forwards
// them, JPEG encoded, to the open session.
package vision

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrNoFrame is returned when the camera produced no usable frame.
var ErrNoFrame = errors.New("vision: no frame available")

// DefaultJPEGQuality is the encode quality used when none is given.
const DefaultJPEGQuality = 80

// FrameGrabber produces JPEG frames. CameraGrabber is the hardware
// implementation; tests substitute their own.
type FrameGrabber interface {
	Grab() ([]byte, error)
	Close() error
}

// CameraGrabber reads frames from a V4L/AVFoundation camera through
// gocv and encodes them as JPEG.
type CameraGrabber struct {
	cap     *gocv.VideoCapture
	mat     gocv.Mat
	quality int
}

// OpenCamera opens the capture device. quality <= 0 selects
// DefaultJPEGQuality.
func OpenCamera(deviceID int, quality int) (*CameraGrabber, error) {
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	cap, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("vision: open camera %d: %w", deviceID, err)
	}
	return &CameraGrabber{
		cap:     cap,
		mat:     gocv.NewMat(),
		quality: quality,
	}, nil
}

// Grab reads one frame and returns it JPEG encoded.
func (g *CameraGrabber) Grab() ([]byte, error) {
	if ok := g.cap.Read(&g.mat); !ok || g.mat.Empty() {
		return nil, ErrNoFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, g.mat,
		[]int{gocv.IMWriteJpegQuality, g.quality})
	if err != nil {
		return nil, fmt.Errorf("vision: jpeg encode: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the camera.
func (g *CameraGrabber) Close() error {
	g.mat.Close()
	return g.cap.Close()
}

var _ FrameGrabber = (*CameraGrabber)(nil)
