//go:build withcv
// +build withcv

package cvision

import(
	"image"
	"log"

	"gocv.io/x/gocv"
)

// Windows shows each named image in its own HighGUI window, created on
// first use.
type Windows struct {
	windows map[string]*gocv.Window
	order   []string
}

func NewWindows() (*Windows, error) {
	return &Windows{windows: map[string]*gocv.Window{}}, nil
}

func (w *Windows)Show(name string, img image.Image) {
	var m gocv.Mat
	var err error
	if g, ok := img.(*image.Gray); ok {
		m, err = grayToMat(g)
	} else {
		m, err = gocv.ImageToMatRGB(img)
	}
	if err != nil {
		log.Printf("window %s: %v\n", name, err)
		return
	}
	defer m.Close()

	win, exists := w.windows[name]
	if !exists {
		win = gocv.NewWindow(name)
		w.windows[name] = win
		w.order = append(w.order, name)
	}
	win.IMShow(m)
}

// EndFrame gives HighGUI its 1ms to draw.
func (w *Windows)EndFrame(i int) {
	if len(w.order) > 0 {
		w.windows[w.order[0]].WaitKey(1)
	}
}

func (w *Windows)Close() error {
	for _, name := range w.order {
		w.windows[name].Close()
	}
	w.windows = map[string]*gocv.Window{}
	w.order = nil
	return nil
}
