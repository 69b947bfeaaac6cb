//go:build withcv
// +build withcv

package cvision

import(
	"fmt"
	"image"
	"io"

	"gocv.io/x/gocv"
)

// VideoSource decodes a video file, frame by frame, into gray images.
type VideoSource struct {
	Filename string

	vc       *gocv.VideoCapture
	frame    gocv.Mat
	gray     gocv.Mat
	closed   bool
}

func OpenVideo(filename string) (*VideoSource, error) {
	vc, err := gocv.VideoCaptureFile(filename)
	if err != nil {
		return nil, fmt.Errorf("open video '%s': %v", filename, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open video '%s': not opened", filename)
	}
	return &VideoSource{Filename: filename, vc: vc, frame: gocv.NewMat(), gray: gocv.NewMat()}, nil
}

// Next returns io.EOF when the decoder has no more frames.
func (vs *VideoSource)Next() (*image.Gray, error) {
	if vs.closed {
		return nil, io.EOF
	}
	if ok := vs.vc.Read(&vs.frame); !ok || vs.frame.Empty() {
		return nil, io.EOF
	}

	src := vs.frame
	if vs.frame.Channels() != 1 {
		gocv.CvtColor(vs.frame, &vs.gray, gocv.ColorBGRToGray)
		src = vs.gray
	}
	return matToGray(src)
}

// Close releases the decoder. It is safe to call more than once.
func (vs *VideoSource)Close() error {
	if vs.closed {
		return nil
	}
	vs.closed = true
	vs.frame.Close()
	vs.gray.Close()
	return vs.vc.Close()
}
