package sim

import (
	"io"
	"strings"

	"tinygo.org/x/drivers/ssd1306"
)

const (
	panelWidth = 128
	panelPages = 8
)

// commandArgs is the number of argument bytes each command takes
var commandArgs = map[byte]int{
	ssd1306.SETCONTRAST:        1,
	ssd1306.SETDISPLAYOFFSET:   1,
	ssd1306.SETCOMPINS:         1,
	ssd1306.SETVCOMDETECT:      1,
	ssd1306.SETDISPLAYCLOCKDIV: 1,
	ssd1306.SETPRECHARGE:       1,
	ssd1306.SETMULTIPLEX:       1,
	ssd1306.MEMORYMODE:         1,
	ssd1306.CHARGEPUMP:         1,
	ssd1306.COLUMNADDR:         2,
	ssd1306.PAGEADDR:           2,
}

// Panel models an SSD1306 controller in horizontal addressing mode: the
// command decoder and the graphics RAM.
type Panel struct {
	addr uint8

	// Absent makes the panel ignore its address
	Absent bool

	RAM      [panelPages][panelWidth]byte
	On       bool
	Commands [][]byte // every complete command, in order

	colStart, colEnd   uint8
	pageStart, pageEnd uint8
	col, page          uint8

	expectControl bool
	stream        bool
	data          bool
	cmd           []byte
}

// NewPanel returns a panel at addr, display off
func NewPanel(addr uint8) *Panel {
	return &Panel{
		addr:    addr,
		colEnd:  panelWidth - 1,
		pageEnd: panelPages - 1,
	}
}

func (p *Panel) Address() uint8 {
	return p.addr
}

func (p *Panel) Begin(read bool) bool {
	if p.Absent || read {
		return false
	}
	p.expectControl = true
	p.stream = false
	return true
}

func (p *Panel) Receive(b byte) bool {
	if p.expectControl {
		p.expectControl = false
		p.stream = b&0x80 == 0
		p.data = b&0x40 != 0
		return true
	}
	if p.data {
		p.store(b)
	} else {
		p.command(b)
	}
	if !p.stream {
		p.expectControl = true
	}
	return true
}

func (p *Panel) Transmit() byte {
	return 0xFF
}

func (p *Panel) End() {}

func (p *Panel) store(b byte) {
	p.RAM[p.page][p.col] = b
	p.col++
	if p.col > p.colEnd {
		p.col = p.colStart
		p.page++
		if p.page > p.pageEnd {
			p.page = p.pageStart
		}
	}
}

func (p *Panel) command(b byte) {
	p.cmd = append(p.cmd, b)
	if len(p.cmd) <= commandArgs[p.cmd[0]] {
		return
	}
	cmd := p.cmd
	p.cmd = nil
	p.Commands = append(p.Commands, cmd)

	switch cmd[0] {
	case ssd1306.DISPLAYON:
		p.On = true
	case ssd1306.DISPLAYOFF:
		p.On = false
	case ssd1306.COLUMNADDR:
		p.colStart, p.colEnd = cmd[1]%panelWidth, cmd[2]%panelWidth
		p.col = p.colStart
	case ssd1306.PAGEADDR:
		p.pageStart, p.pageEnd = cmd[1]%panelPages, cmd[2]%panelPages
		p.page = p.pageStart
	}
}

// Pixel reports whether the pixel at x, y is lit
func (p *Panel) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= panelWidth || y >= panelPages*8 {
		return false
	}
	return p.RAM[y/8][x]&(1<<uint(y%8)) != 0
}

// Render draws pages first..last as text, two pixel rows per line
func (p *Panel) Render(w io.Writer, first, last int) error {
	var sb strings.Builder
	for y := first * 8; y < (last+1)*8; y += 2 {
		for x := 0; x < panelWidth; x++ {
			top, bottom := p.Pixel(x, y), p.Pixel(x, y+1)
			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
