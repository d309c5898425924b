package utils

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

func IsPortAvailable(host string, port int) bool {
	Verbose("Checking if port %d is available on %s", port, host)
	listener, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.ParseIP(host), Port: port})
	if err != nil {
		Verbose("error: %v", err)
		return false
	}

	defer listener.Close()
	return true
}

// IsAddressAvailable reports whether a host:port listen address is free.
func IsAddressAvailable(addr string) (bool, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return false, fmt.Errorf("invalid address %s: %w", addr, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return false, fmt.Errorf("invalid port in address %s", addr)
	}

	if host == "localhost" || host == "" {
		host = "127.0.0.1"
	}
	return IsPortAvailable(host, port), nil
}

// IsReachable reports whether something accepts TCP connections at addr.
func IsReachable(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		Verbose("%s not reachable: %v", addr, err)
		return false
	}
	_ = conn.Close()
	return true
}
