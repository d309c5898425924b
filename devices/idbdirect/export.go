//go:build idbdirect && cgo

package idbdirect

/*
#include <stdint.h>
#include <stddef.h>
*/
import "C"

import "unsafe"

//export idbtapLogLine
func idbtapLogLine(line *C.char, key C.uintptr_t) {
	v, ok := callbacks.lookup(uintptr(key))
	if !ok || line == nil {
		return
	}
	if sink, ok := v.(logSink); ok {
		sink(C.GoString(line))
	}
}

//export idbtapInstallProgress
func idbtapInstallProgress(done, total C.size_t, key C.uintptr_t) {
	v, ok := callbacks.lookup(uintptr(key))
	if !ok {
		return
	}
	if sink, ok := v.(progressSink); ok {
		sink(uint64(done), uint64(total))
	}
}

// the shared segment is only valid during the callback, so pixels are copied
//
//export idbtapShmFrame
func idbtapShmFrame(base unsafe.Pointer, size C.size_t, width, height, stride C.uint32_t, format *C.char, key C.uintptr_t) {
	v, ok := callbacks.lookup(uintptr(key))
	if !ok || base == nil {
		return
	}
	sink, ok := v.(frameSink)
	if !ok {
		return
	}
	var name string
	if format != nil {
		name = fixedCString(C.GoBytes(unsafe.Pointer(format), shmFormatLen))
	}
	sink(C.GoBytes(base, C.int(size)), uint32(width), uint32(height), uint32(stride), name)
}
