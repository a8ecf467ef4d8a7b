package device

import (
	"strings"
	"sync"

	"github.com/jobinpa/tinyhttp/internal/logging"
	"go.uber.org/zap"
)

// Display is a character display addressed by column and row.
type Display interface {
	Clear()
	WriteText(col, row int, text string)
}

// Size of the character LCD the firmware drives
const (
	DisplayColumns = 16
	DisplayRows    = 2
)

// BufferDisplay keeps a 16x2 character buffer and logs each write. Text past
// the last column is cut off and writes outside the screen are ignored.
type BufferDisplay struct {
	mu    sync.Mutex
	lines [DisplayRows][]rune
}

// NewBufferDisplay creates a blank display
func NewBufferDisplay() *BufferDisplay {
	d := &BufferDisplay{}
	d.reset()
	return d
}

// Clear blanks every cell
func (d *BufferDisplay) Clear() {
	d.mu.Lock()
	d.reset()
	d.mu.Unlock()
}

func (d *BufferDisplay) reset() {
	for row := range d.lines {
		d.lines[row] = []rune(strings.Repeat(" ", DisplayColumns))
	}
}

// WriteText writes text starting at (col, row)
func (d *BufferDisplay) WriteText(col, row int, text string) {
	if row < 0 || row >= DisplayRows || col < 0 || col >= DisplayColumns {
		return
	}

	d.mu.Lock()
	line := d.lines[row]
	for i, r := range []rune(text) {
		if col+i >= DisplayColumns {
			break
		}
		line[col+i] = r
	}
	rendered := string(line)
	d.mu.Unlock()

	logging.Info("Display",
		zap.Int("row", row),
		zap.String("text", strings.TrimRight(rendered, " ")),
	)
}

// Line returns the content of a row, trailing blanks included
func (d *BufferDisplay) Line(row int) string {
	if row < 0 || row >= DisplayRows {
		return ""
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.lines[row])
}
