package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"vision-worker-go/internal/models"
)

const (
	// JPEG quality settings
	HighQuality   = 95
	MediumQuality = 85
	LowQuality    = 50
)

// ErrDecode is returned when an uploaded image can't be decoded
var ErrDecode = errors.New("could not decode image")

// Palette cycles through box colors, one per detection
var Palette = []color.RGBA{
	{R: 0, G: 255, B: 0, A: 255},   // Green
	{R: 255, G: 0, B: 0, A: 255},   // Red
	{R: 0, G: 0, B: 255, A: 255},   // Blue
	{R: 255, G: 255, B: 0, A: 255}, // Yellow
	{R: 255, G: 0, B: 255, A: 255}, // Magenta
	{R: 0, G: 255, B: 255, A: 255}, // Cyan
}

// Canvas exposes a BGR24 frame as a draw.Image without copying. Writes go
// straight into the frame buffer.
type Canvas struct {
	frame *models.Frame
}

// NewCanvas wraps frame. The frame must be Valid and have three channels.
func NewCanvas(frame *models.Frame) *Canvas {
	return &Canvas{frame: frame}
}

func (c *Canvas) ColorModel() color.Model { return color.RGBAModel }

func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.frame.Width, c.frame.Height)
}

func (c *Canvas) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(c.Bounds())) {
		return color.RGBA{}
	}
	i := (y*c.frame.Width + x) * 3
	d := c.frame.Data
	return color.RGBA{R: d[i+2], G: d[i+1], B: d[i], A: 255}
}

func (c *Canvas) Set(x, y int, col color.Color) {
	if !(image.Point{X: x, Y: y}.In(c.Bounds())) {
		return
	}
	r, g, b, _ := col.RGBA()
	i := (y*c.frame.Width + x) * 3
	c.frame.Data[i] = uint8(b >> 8)
	c.frame.Data[i+1] = uint8(g >> 8)
	c.frame.Data[i+2] = uint8(r >> 8)
}

// FrameFromImage converts any decoded image into a BGR24 frame
func FrameFromImage(img image.Image) *models.Frame {
	b := img.Bounds()
	frame := models.NewFrame(b.Dx(), b.Dy())
	if rgba, ok := img.(*image.RGBA); ok {
		copyRGBA(frame, rgba)
		return frame
	}
	canvas := NewCanvas(frame)
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Src)
	return frame
}

func copyRGBA(frame *models.Frame, img *image.RGBA) {
	for y := 0; y < frame.Height; y++ {
		src := img.Pix[y*img.Stride:]
		dst := frame.Data[y*frame.Width*3:]
		for x := 0; x < frame.Width; x++ {
			dst[x*3] = src[x*4+2]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4]
		}
	}
}

// ToRGBA copies a BGR24 frame into an RGBA image
func ToRGBA(frame *models.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for i, j := 0, 0; i+2 < len(frame.Data) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j] = frame.Data[i+2]
		img.Pix[j+1] = frame.Data[i+1]
		img.Pix[j+2] = frame.Data[i]
		img.Pix[j+3] = 255
	}
	return img
}

// EncodeJPEG encodes a BGR24 frame as JPEG
func EncodeJPEG(frame *models.Frame, quality int) ([]byte, error) {
	if !frame.Valid() || frame.Channels != 3 {
		return nil, fmt.Errorf("invalid frame for JPEG encoding")
	}
	if quality <= 0 || quality > 100 {
		quality = MediumQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, ToRGBA(frame), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeImage decodes JPEG or PNG bytes into a BGR24 frame
func DecodeImage(data []byte) (*models.Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	return FrameFromImage(img), nil
}

// DrawText renders text with its baseline at (x, y)
func DrawText(dst draw.Image, text string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// DrawTextScaled renders text scale times larger with its top-left at (x, y)
func DrawTextScaled(dst draw.Image, text string, x, y, scale int, col color.Color) {
	if scale <= 1 {
		DrawText(dst, text, x, y+basicfont.Face7x13.Ascent, col)
		return
	}
	face := basicfont.Face7x13
	glyphs := image.NewRGBA(image.Rect(0, 0, TextWidth(text), face.Height))
	DrawText(glyphs, text, 0, face.Ascent, col)

	b := glyphs.Bounds()
	target := image.Rect(x, y, x+b.Dx()*scale, y+b.Dy()*scale)
	xdraw.NearestNeighbor.Scale(dst, target, glyphs, b, xdraw.Over, nil)
}

// TextWidth is the rendered width of text in pixels
func TextWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}

// DrawRect outlines r with the given stroke thickness
func DrawRect(dst draw.Image, r image.Rectangle, col color.Color, thickness int) {
	r = r.Canon().Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	u := image.NewUniform(col)
	for t := 0; t < thickness; t++ {
		inner := r.Inset(t)
		if inner.Empty() {
			return
		}
		draw.Draw(dst, image.Rect(inner.Min.X, inner.Min.Y, inner.Max.X, inner.Min.Y+1), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(inner.Min.X, inner.Max.Y-1, inner.Max.X, inner.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+1, inner.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(inner.Max.X-1, inner.Min.Y, inner.Max.X, inner.Max.Y), u, image.Point{}, draw.Src)
	}
}

// DrawDetections returns a copy of frame with every boxed detection outlined
// and labelled. Detections without a box are skipped.
func DrawDetections(frame *models.Frame, detections []models.Detection) *models.Frame {
	out := frame.Clone()
	if !out.Valid() || out.Channels != 3 {
		return out
	}
	canvas := NewCanvas(out)
	for i, d := range detections {
		if d.BBox == nil {
			continue
		}
		col := Palette[i%len(Palette)]
		r := image.Rect(d.BBox.X1, d.BBox.Y1, d.BBox.X2, d.BBox.Y2)
		DrawRect(canvas, r, col, 2)

		label := fmt.Sprintf("%s %.2f", d.ClassName, d.Confidence)
		ty := r.Min.Y - 4
		if ty < 13 {
			ty = r.Min.Y + 14
		}
		DrawText(canvas, label, r.Min.X+2, ty, col)
	}
	return out
}

// MessageFrame renders a dark gray frame with message centered in white
func MessageFrame(width, height int, message string) *models.Frame {
	frame := models.NewFrame(width, height)
	canvas := NewCanvas(frame)
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.RGBA{R: 50, G: 50, B: 50, A: 255}), image.Point{}, draw.Src)

	x := (width - TextWidth(message)) / 2
	y := (height + basicfont.Face7x13.Ascent) / 2
	DrawText(canvas, message, max(x, 0), y, color.White)
	return frame
}
