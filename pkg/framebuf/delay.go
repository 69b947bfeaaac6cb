// Package framebuf holds the last few decoded frames, so each new frame
// can be paired with the one that arrived deltaT frames earlier.
package framebuf

import(
	"errors"
	"fmt"
	"image"
)

var(
	ErrEmpty = errors.New("framebuf: pop from empty buffer")
	ErrFull  = errors.New("framebuf: push to full buffer")
)

// Delay is a ring buffer of frames, used as a delay line. It never
// holds more than its capacity; callers pop the oldest frame once the
// buffer is full, before pushing the next one.
type Delay struct {
	frames   []*image.Gray
	head     int // index of the oldest frame
	size     int
}

func NewDelay(deltaT int) (*Delay, error) {
	if deltaT < 1 {
		return nil, fmt.Errorf("framebuf: deltaT must be positive, got %d", deltaT)
	}
	return &Delay{frames: make([]*image.Gray, deltaT)}, nil
}

func (d *Delay)Cap() int   { return len(d.frames) }
func (d *Delay)Len() int   { return d.size }
func (d *Delay)Full() bool { return d.size >= len(d.frames) }

// Push appends the newest frame.
func (d *Delay)Push(f *image.Gray) error {
	if d.Full() {
		return ErrFull
	}
	d.frames[(d.head + d.size) % len(d.frames)] = f
	d.size++
	return nil
}

// PopOldest removes and returns the earliest frame still held.
func (d *Delay)PopOldest() (*image.Gray, error) {
	if d.size == 0 {
		return nil, ErrEmpty
	}
	f := d.frames[d.head]
	d.frames[d.head] = nil
	d.head = (d.head + 1) % len(d.frames)
	d.size--
	return f, nil
}
