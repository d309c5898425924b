package idbdirect

import (
	"sync"
	"sync/atomic"
)

// callbackRegistry hands native code an integer key instead of a Go
// pointer. Native callbacks look the key up; a key unregistered while a
// callback is in flight simply resolves to nothing.
type callbackRegistry struct {
	next    atomic.Uintptr
	entries sync.Map // uintptr -> any
}

func (r *callbackRegistry) register(v any) uintptr {
	key := r.next.Add(1)
	r.entries.Store(key, v)
	return key
}

func (r *callbackRegistry) lookup(key uintptr) (any, bool) {
	return r.entries.Load(key)
}

func (r *callbackRegistry) unregister(key uintptr) {
	r.entries.Delete(key)
}

func (r *callbackRegistry) len() int {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

var callbacks callbackRegistry

type logSink func(line string)

type progressSink func(done, total uint64)

type frameSink func(data []byte, width, height, stride uint32, format string)
