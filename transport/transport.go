// Package transport holds what the servers exposing starters share.
package transport

import (
	"context"
	"net"
	"strconv"
)

const (
	MinPort = 1
	MaxPort = 65535
)

// Server is a blocking server the app runs next to its starters.
type Server interface {
	Run() error
	Shutdown(context.Context) error
}

// ValidateAddress reports whether addr is a host:port with a usable port.
// The host may be empty.
func ValidateAddress(addr string) bool {
	if addr == "" {
		return false
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	if host != "" && !isValidHost(host) {
		return false
	}

	p, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return p >= MinPort && p <= MaxPort
}

// AddressOr returns addr when it is valid and fallback otherwise.
func AddressOr(addr, fallback string) (string, bool) {
	if ValidateAddress(addr) {
		return addr, true
	}
	return fallback, false
}

func isValidHost(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return true
	}
	if len(host) > 253 {
		return false
	}

	for i, r := range host {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-') {
			return false
		}
		if (i == 0 || i == len(host)-1) && r == '-' {
			return false
		}
	}
	return true
}
