// Package camera grabs still frames from a local webcam for participant photos.
package camera

import (
	"errors"
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// warmupFrames are discarded so auto exposure settles before the capture.
const warmupFrames = 10

var ErrNoFrame = errors.New("camera: no frame captured")

// Camera wraps an opened capture device.
type Camera struct {
	device int
	cap    *gocv.VideoCapture
}

// Open opens the capture device with the given index.
func Open(device int) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("camera: failed to open device %d: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera: device %d did not open", device)
	}
	log.Printf("camera: Opened device %d", device)
	return &Camera{device: device, cap: vc}, nil
}

// Capture reads a fresh frame and converts it to an image.Image.
func (c *Camera) Capture() (image.Image, error) {
	frame := gocv.NewMat()
	defer frame.Close()

	for i := 0; i < warmupFrames; i++ {
		c.cap.Read(&frame)
	}
	if ok := c.cap.Read(&frame); !ok || frame.Empty() {
		return nil, fmt.Errorf("%w from device %d", ErrNoFrame, c.device)
	}

	img, err := frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("camera: failed to convert frame: %w", err)
	}
	return img, nil
}

func (c *Camera) Close() error {
	return c.cap.Close()
}
