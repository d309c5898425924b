//go:build !idbdirect || !cgo

package idbdirect

import (
	"errors"
	"testing"

	"github.com/mobile-next/idbtap/types"
	"github.com/stretchr/testify/assert"
)

func TestOpen_WithoutNativeLibrary(t *testing.T) {
	assert.False(t, Available())
	assert.Empty(t, Version())

	c, err := Open(Options{UDID: "SIM-1"})
	assert.Nil(t, c)
	assert.True(t, errors.Is(err, types.ErrNotSupported))
}
