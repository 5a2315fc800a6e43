package geo

import "net"

// Locate derives a coarse location label for an installation record from its
// remote address. Without an external geo database only address-class
// information is available; public addresses yield an empty label.
func Locate(remoteAddr string) string {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}
	switch {
	case ip.IsLoopback():
		return "localhost"
	case ip.IsPrivate(), ip.IsLinkLocalUnicast():
		return "private network"
	default:
		return ""
	}
}
