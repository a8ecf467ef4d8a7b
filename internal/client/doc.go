// Package client is an HTTP client for a running server. It reads the
// device state from /status and switches the LEDs through the index page:
//
//	c := client.New("http://192.168.4.16")
//	if err := c.SetColor(ctx, "green"); err != nil {
//	    return err
//	}
//	status, err := c.Status(ctx)
//
// Each attempt writes one GET on a fresh connection and reads until the
// server closes it. Error replies end right after their headers, so the
// reply is parsed here rather than by net/http, and a 404 stays a 404.
//
// Requests are retried with exponential backoff on timeouts, refused
// connections and 5xx answers other than 505.
package client
