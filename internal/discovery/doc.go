// Package discovery advertises and finds echo servers over mDNS/DNS-SD.
//
// Servers register themselves as "_wsecho._tcp" in the "local." domain with
// TXT records describing the codec, build version and WebSocket path. The
// probe CLI browses for that service type to find servers without knowing
// their address.
//
// # Advertising
//
//	adv, err := discovery.Advertise("lab-echo", 8080, []string{"codec=gobwas", "path=/"})
//	if err != nil {
//	    return err
//	}
//	defer adv.Shutdown()
//
// # Scanning
//
//	services, err := discovery.Scan(5 * time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, svc := range services {
//	    fmt.Println(svc.URL())
//	}
//
// Scanning blocks for the full timeout; responses arrive asynchronously and
// duplicates (same instance and address) are dropped.
package discovery
