package models

import "time"

// FrameFormatBGR24 is the only pixel layout the worker produces: 8-bit
// interleaved blue, green, red.
const FrameFormatBGR24 = "BGR24"

// Frame is one captured image buffer
type Frame struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Channels  int       `json:"channels"`
	Data      []byte    `json:"-"`
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

// NewFrame allocates a zeroed BGR24 frame
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:     width,
		Height:    height,
		Channels:  3,
		Data:      make([]byte, width*height*3),
		Timestamp: time.Now(),
	}
}

// Clone returns a deep copy; the pixel buffer is never shared.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	c := *f
	c.Data = make([]byte, len(f.Data))
	copy(c.Data, f.Data)
	return &c
}

// Valid reports whether the buffer length matches the declared geometry.
func (f *Frame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && f.Channels > 0 &&
		len(f.Data) == f.Width*f.Height*f.Channels
}
