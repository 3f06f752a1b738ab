package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Webcam grabs single frames from a local camera device.
type Webcam struct {
	deviceID int
	cam      *gocv.VideoCapture
}

// OpenWebcam opens the camera with the given device ID.
func OpenWebcam(deviceID int) (*Webcam, error) {
	cam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", deviceID, err)
	}
	return &Webcam{deviceID: deviceID, cam: cam}, nil
}

// Grab captures a single frame as a Photo.
func (w *Webcam) Grab() (*Photo, error) {
	mat := gocv.NewMat()
	defer mat.Close()

	if ok := w.cam.Read(&mat); !ok || mat.Empty() {
		return nil, fmt.Errorf("camera %d returned no frame", w.deviceID)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return FromImage(img), nil
}

// Close releases the camera device.
func (w *Webcam) Close() error {
	if w.cam == nil {
		return nil
	}
	return w.cam.Close()
}
