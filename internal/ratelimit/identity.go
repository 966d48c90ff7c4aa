package ratelimit

import (
	"net"
	"strings"
)

// Identity derives the rate-limit identity key for a request. Authenticated
// requests are keyed by user id; anonymous requests fall back to a partially
// anonymized network address so the stored key never contains a full IP.
func Identity(userID, remoteAddr string) string {
	if userID != "" {
		return "user:" + userID
	}
	return "ip:" + AnonymizeAddr(remoteAddr)
}

// AnonymizeAddr strips host precision from a network address: the last two
// octets of an IPv4 address and the last two 16-bit groups of an IPv6
// address are zeroed. Unparseable input collapses to "unknown".
func AnonymizeAddr(remoteAddr string) string {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	if ip == nil {
		return "unknown"
	}

	if v4 := ip.To4(); v4 != nil {
		masked := make(net.IP, len(v4))
		copy(masked, v4)
		masked[2] = 0
		masked[3] = 0
		return masked.String()
	}

	v6 := ip.To16()
	masked := make(net.IP, len(v6))
	copy(masked, v6)
	for i := 12; i < 16; i++ {
		masked[i] = 0
	}
	return masked.String()
}
