package core

import (
	"errors"
	"image/color"

	"tinygo.org/x/drivers"
)

var ErrDisplayBusy = errors.New("display: previous frame still in flight")

// Canvas is an off-screen monochrome band of whole display pages. It is a
// drivers.Displayer, so tinyfont and the other TinyGo drawing packages can
// render into it; Display queues the band for output.
type Canvas struct {
	display   *Display
	firstPage uint8
	pages     uint8
	buf       []byte

	flushing bool
	failed   bool
}

var _ drivers.Displayer = (*Canvas)(nil)

// NewCanvas returns a band of pages display pages starting at firstPage
func NewCanvas(display *Display, firstPage, pages uint8) *Canvas {
	if firstPage >= DisplayPages {
		firstPage = DisplayPages - 1
	}
	if pages == 0 || firstPage+pages > DisplayPages {
		pages = DisplayPages - firstPage
	}
	return &Canvas{
		display:   display,
		firstPage: firstPage,
		pages:     pages,
		buf:       make([]byte, int(pages)*DisplayWidth),
	}
}

func (c *Canvas) Size() (x, y int16) {
	return DisplayWidth, int16(c.pages) * 8
}

// SetPixel lights the pixel for any non-black color
func (c *Canvas) SetPixel(x, y int16, col color.RGBA) {
	w, h := c.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	idx := int(y/8)*DisplayWidth + int(x)
	bit := byte(1) << uint(y%8)
	if col.R|col.G|col.B != 0 {
		c.buf[idx] |= bit
	} else {
		c.buf[idx] &^= bit
	}
}

// Pixel reports whether the pixel at x, y is lit
func (c *Canvas) Pixel(x, y int16) bool {
	w, h := c.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	return c.buf[int(y/8)*DisplayWidth+int(x)]&(1<<uint(y%8)) != 0
}

// Clear blanks the buffer. The panel changes on the next Display.
func (c *Canvas) Clear() {
	for i := range c.buf {
		c.buf[i] = 0
	}
}

// Display queues the band for output. The buffer must not change until
// Busy reports false.
func (c *Canvas) Display() error {
	cs := EnterCritical()
	defer cs.Exit()

	if c.flushing {
		return ErrDisplayBusy
	}
	vp := Viewport{
		MaxCol:  DisplayWidth - 1,
		MinPage: c.firstPage,
		MaxPage: c.firstPage + c.pages - 1,
	}
	if !c.display.OutputNotify(vp, c.provide, c.done) {
		return ErrDisplayBusy
	}
	c.flushing = true
	return nil
}

// Busy reports whether a frame is still being sent
func (c *Canvas) Busy() bool {
	cs := EnterCritical()
	defer cs.Exit()
	return c.flushing
}

// Failed reports whether the last frame was dropped
func (c *Canvas) Failed() bool {
	cs := EnterCritical()
	defer cs.Exit()
	return c.failed
}

func (c *Canvas) provide(col, page uint8) (byte, bool) {
	return c.buf[int(page-c.firstPage)*DisplayWidth+int(col)], true
}

func (c *Canvas) done(ok bool) {
	c.flushing = false
	c.failed = !ok
}
