package device

import (
	"fmt"
	"sync"

	"github.com/jobinpa/tinyhttp/internal/logging"
	"go.uber.org/zap"
)

// Pin is a digital output such as an LED.
type Pin interface {
	On()
	Off()
	IsOn() bool
}

// MemoryPin is a Pin that only records its level. It stands in for a GPIO
// line on hosts without one and logs every change.
type MemoryPin struct {
	ID   int
	Name string

	mu sync.Mutex
	on bool
}

// NewMemoryPin creates a pin that starts low
func NewMemoryPin(id int, name string) *MemoryPin {
	return &MemoryPin{ID: id, Name: name}
}

// On drives the pin high
func (p *MemoryPin) On() { p.set(true) }

// Off drives the pin low
func (p *MemoryPin) Off() { p.set(false) }

// IsOn reports the current level
func (p *MemoryPin) IsOn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

func (p *MemoryPin) set(on bool) {
	p.mu.Lock()
	changed := p.on != on
	p.on = on
	p.mu.Unlock()

	if changed {
		logging.Debug("Pin changed",
			zap.Int("pin", p.ID),
			zap.String("name", p.Name),
			zap.Bool("on", on),
		)
	}
}

// Color names accepted by RGB.SetColor
const (
	ColorRed   = "red"
	ColorGreen = "green"
	ColorBlue  = "blue"
	ColorOff   = "off"
)

// RGB is a set of three LEDs of which at most one is lit.
type RGB struct {
	Red   Pin
	Green Pin
	Blue  Pin
}

// SetColor lights the LED of the given color and turns the others off.
// ColorOff turns every LED off.
func (l *RGB) SetColor(color string) error {
	switch color {
	case ColorRed:
		l.Red.On()
		l.Green.Off()
		l.Blue.Off()
	case ColorGreen:
		l.Red.Off()
		l.Green.On()
		l.Blue.Off()
	case ColorBlue:
		l.Red.Off()
		l.Green.Off()
		l.Blue.On()
	case ColorOff:
		l.Off()
	default:
		return fmt.Errorf("unknown color %q", color)
	}
	return nil
}

// Off turns every LED off
func (l *RGB) Off() {
	l.Red.Off()
	l.Green.Off()
	l.Blue.Off()
}

// Color returns the name of the lit LED, or ColorOff.
func (l *RGB) Color() string {
	switch {
	case l.Red.IsOn():
		return ColorRed
	case l.Green.IsOn():
		return ColorGreen
	case l.Blue.IsOn():
		return ColorBlue
	default:
		return ColorOff
	}
}
