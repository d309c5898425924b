package utils

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPortAvailable(t *testing.T) {
	assert.True(t, IsPortAvailable("127.0.0.1", 0), "Port 0 should always be available (OS picks free port)")
}

func TestIsPortAvailable_PortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "Failed to create test listener")
	defer listener.Close()

	addr := listener.Addr().(*net.TCPAddr)
	assert.False(t, IsPortAvailable("127.0.0.1", addr.Port), "Port %d should be unavailable (in use)", addr.Port)
}

func TestIsPortAvailable_IPv6_NotSupported(t *testing.T) {
	// tcp4 only
	assert.False(t, IsPortAvailable("::1", 0))
}

func TestIsAddressAvailable(t *testing.T) {
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	port := listener.Addr().(*net.TCPAddr).Port

	available, err := IsAddressAvailable(fmt.Sprintf("localhost:%d", port))
	require.NoError(t, err)
	assert.False(t, available)

	available, err = IsAddressAvailable("127.0.0.1:0")
	require.NoError(t, err)
	assert.True(t, available)

	_, err = IsAddressAvailable("no-port")
	assert.Error(t, err)

	_, err = IsAddressAvailable("localhost:http")
	assert.Error(t, err)

	_, err = IsAddressAvailable("localhost:70000")
	assert.Error(t, err)
}

func TestIsReachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()

	assert.True(t, IsReachable(addr, time.Second))

	require.NoError(t, listener.Close())
	assert.False(t, IsReachable(addr, 200*time.Millisecond))
}
