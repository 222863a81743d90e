package utils

import (
	"net"
	"strings"
)

// UnknownIP is reported when no candidate holds a valid address
const UnknownIP = "Unknown"

// ClientIPHeaders lists the proxy headers consulted before the connection
// address, most trusted first
var ClientIPHeaders = []string{
	"CF-Connecting-IP",
	"Client-IP",
	"X-Forwarded-For",
}

// ResolveClientIP returns the first syntactically valid IP among the proxy
// headers and then remoteAddr. For comma-separated headers such as
// X-Forwarded-For only the leftmost (client) entry is considered.
func ResolveClientIP(header func(string) string, remoteAddr string) string {
	if header != nil {
		for _, name := range ClientIPHeaders {
			if ip := firstIP(header(name)); ip != "" {
				return ip
			}
		}
	}

	if ip := hostIP(remoteAddr); ip != "" {
		return ip
	}
	return UnknownIP
}

func firstIP(value string) string {
	if value == "" {
		return ""
	}
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	value = strings.TrimSpace(value)
	if net.ParseIP(value) == nil {
		return ""
	}
	return value
}

// hostIP accepts both "ip" and "ip:port" forms
func hostIP(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if net.ParseIP(addr) == nil {
		return ""
	}
	return addr
}
