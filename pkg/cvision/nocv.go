//go:build !withcv
// +build !withcv

package cvision

import(
	"image"
	"io"

	"github.com/abworrall/motionlab/pkg/lab"
)

const Available = false

func NewBackend(cfg lab.Config) (Backend, error)   { return Backend{}, ErrNoOpenCV }
func OpenVideo(filename string) (*VideoSource, error) { return nil, ErrNoOpenCV }
func NewWindows() (*Windows, error)                { return nil, ErrNoOpenCV }

// The stand-ins below can't be constructed; they keep the package's API
// the same with and without OpenCV.

type VideoSource struct{ Filename string }

func (vs *VideoSource)Next() (*image.Gray, error) { return nil, io.EOF }
func (vs *VideoSource)Close() error               { return nil }

type Windows struct{}

func (w *Windows)Show(name string, img image.Image) {}
func (w *Windows)EndFrame(i int)                   {}
func (w *Windows)Close() error                     { return nil }
