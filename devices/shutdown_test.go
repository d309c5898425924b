package devices

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownHook_RegisterAndShutdown(t *testing.T) {
	hook := NewShutdownHook()

	called := false
	hook.Register("test-hook", func() error {
		called = true
		return nil
	})
	assert.Equal(t, 1, hook.Count())

	require.NoError(t, hook.Shutdown())
	assert.True(t, called)
	assert.Equal(t, 0, hook.Count())
}

func TestShutdownHook_ReverseOrder(t *testing.T) {
	hook := NewShutdownHook()

	var order []string
	for _, name := range []string{"companion-process", "grpc-conn", "log-stream"} {
		name := name
		hook.Register(name, func() error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, hook.Shutdown())
	assert.Equal(t, []string{"log-stream", "grpc-conn", "companion-process"}, order)
}

func TestShutdownHook_ErrorHandling(t *testing.T) {
	hook := NewShutdownHook()

	ran := 0
	hook.Register("success", func() error { ran++; return nil })
	hook.Register("failure", func() error { ran++; return errors.New("cleanup failed") })
	hook.Register("success2", func() error { ran++; return nil })

	err := hook.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failure: cleanup failed")
	assert.Equal(t, 3, ran)
	assert.Equal(t, 0, hook.Count())
}

func TestShutdownHook_EmptyAndRepeatedShutdown(t *testing.T) {
	hook := NewShutdownHook()
	assert.NoError(t, hook.Shutdown())

	calls := 0
	hook.Register("once", func() error { calls++; return nil })
	assert.NoError(t, hook.Shutdown())
	assert.NoError(t, hook.Shutdown())
	assert.Equal(t, 1, calls)
}

func TestShutdownHook_ConcurrentRegister(t *testing.T) {
	hook := NewShutdownHook()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hook.Register(fmt.Sprintf("hook-%d", n), func() error { return nil })
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, hook.Count())
}
