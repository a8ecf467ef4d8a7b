// Package device holds the device side of the server: the LED outputs, the
// character display and the request handlers that drive them.
//
// Handlers implement server.Handler and decline anything they do not serve,
// so they can be combined with server.Chain:
//
//	leds := &device.RGB{
//	    Red:   device.NewMemoryPin(18, "red"),
//	    Green: device.NewMemoryPin(19, "green"),
//	    Blue:  device.NewMemoryPin(20, "blue"),
//	}
//	handler := server.Chain(
//	    device.NewLEDHandler(leds, ""),
//	    device.NewStatusHandler(leds),
//	)
//
// MemoryPin and BufferDisplay only keep state in memory and log changes; on
// real hardware they are replaced by GPIO and LCD drivers implementing Pin
// and Display.
package device
