// Package discovery advertises servers over mDNS and finds them again.
//
// A running server registers itself as a "_http._tcp" service in the
// "local." domain with the TXT records "server=TinyHttpServer" and "path=/".
// The scanner browses the same service type and keeps only entries carrying
// that marker, so other HTTP services on the network are ignored.
//
// # Usage Example
//
//	adv, err := discovery.Advertise("tinyhttp", 80)
//	if err != nil {
//	    return err
//	}
//	defer adv.Shutdown()
//
//	devices, err := discovery.NewScanner().Scan(ctx)
//	for _, d := range devices {
//	    fmt.Println(d.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
