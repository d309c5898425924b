//go:build idbdirect && cgo

package idbdirect

/*
#cgo LDFLAGS: -lidb_direct
#include <stdint.h>
#include <stdbool.h>
#include <stddef.h>
#include <stdlib.h>

typedef int idb_error_t;

typedef struct {
    double x;
    double y;
} idb_point_t;

typedef struct {
    uint8_t* data;
    size_t size;
    uint32_t width;
    uint32_t height;
    char* format;
} idb_screenshot_t;

typedef struct idb_shm_handle* idb_shm_handle_t;

typedef struct {
    uint64_t magic;
    idb_shm_handle_t handle;
    void* base_address;
    size_t size;
    uint32_t width;
    uint32_t height;
    uint32_t bytes_per_row;
    char format[16];
    uint32_t checksum;
} idb_shm_screenshot_t;

typedef struct {
    const char** environment_variables;
    const char** arguments;
    bool wait_for_debugger;
    bool kill_existing;
} idb_launch_options_t;

typedef void (*idb_log_callback)(const char* line, void* context);
typedef void (*idb_progress_callback)(size_t bytes_transferred, size_t total_bytes, void* context);
typedef void (*idb_screenshot_shm_callback)(const idb_shm_screenshot_t* screenshot, void* context);

enum { IDB_TARGET_SIMULATOR = 0 };
enum { IDB_TOUCH_DOWN = 0, IDB_TOUCH_UP = 1 };

idb_error_t idb_initialize(void);
idb_error_t idb_shutdown(void);
idb_error_t idb_connect_target(const char* udid, int type);
idb_error_t idb_disconnect_target(void);
idb_error_t idb_tap(double x, double y);
idb_error_t idb_touch_event(int type, double x, double y);
idb_error_t idb_swipe(idb_point_t from, idb_point_t to, double duration_seconds);
idb_error_t idb_take_screenshot(idb_screenshot_t* screenshot);
void idb_free_screenshot(idb_screenshot_t* screenshot);
const char* idb_error_string(idb_error_t error);
const char* idb_version(void);

idb_error_t idb_install_app(const char* app_path, idb_progress_callback progress, void* context);
idb_error_t idb_launch_app(const char* bundle_id, const idb_launch_options_t* options);
idb_error_t idb_terminate_app(const char* bundle_id);
idb_error_t idb_list_apps(char*** bundle_ids, size_t* count);
void idb_free_app_list(char** bundle_ids, size_t count);
idb_error_t idb_start_log_stream(idb_log_callback callback, void* context);
idb_error_t idb_stop_log_stream(void);

idb_error_t idb_take_screenshot_shm(idb_shm_screenshot_t* screenshot);
void idb_free_screenshot_shm(idb_shm_screenshot_t* screenshot);
idb_error_t idb_screenshot_stream_shm(idb_screenshot_shm_callback callback, void* context, uint32_t fps);
idb_error_t idb_screenshot_stream_stop(void);

extern void idbtapLogLine(char* line, uintptr_t key);
extern void idbtapInstallProgress(size_t done, size_t total, uintptr_t key);
extern void idbtapShmFrame(void* base, size_t size, uint32_t width, uint32_t height, uint32_t stride, char* format, uintptr_t key);

static void log_bridge(const char* line, void* context) {
    idbtapLogLine((char*)line, (uintptr_t)context);
}

static void progress_bridge(size_t done, size_t total, void* context) {
    idbtapInstallProgress(done, total, (uintptr_t)context);
}

static void shm_bridge(const idb_shm_screenshot_t* shot, void* context) {
    if (shot == NULL) {
        return;
    }
    idbtapShmFrame(shot->base_address, shot->size, shot->width, shot->height, shot->bytes_per_row, (char*)shot->format, (uintptr_t)context);
}

static idb_error_t start_log_stream(uintptr_t key) {
    return idb_start_log_stream(log_bridge, (void*)key);
}

static idb_error_t install_app(const char* path, uintptr_t key) {
    return idb_install_app(path, progress_bridge, (void*)key);
}

static idb_error_t stream_shm(uint32_t fps, uintptr_t key) {
    return idb_screenshot_stream_shm(shm_bridge, (void*)key, fps);
}

static char* app_at(char** ids, size_t i) {
    return ids[i];
}
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/mobile-next/idbtap/devices"
	"github.com/mobile-next/idbtap/types"
	"github.com/mobile-next/idbtap/utils"
)

// Direct is a Companion running inside this process.
type Direct struct {
	opts Options

	mu     sync.Mutex
	logKey uintptr
	closed bool
}

var (
	_ devices.Companion     = (*Direct)(nil)
	_ devices.FrameStreamer = (*Direct)(nil)
)

func describe(code int) string {
	msg := C.idb_error_string(C.idb_error_t(code))
	if msg == nil {
		return ""
	}
	return C.GoString(msg)
}

func check(code C.idb_error_t) error {
	return statusError(int(code), describe)
}

// Available reports whether the binding was compiled in.
func Available() bool { return true }

// Version returns the native library version.
func Version() string {
	v := C.idb_version()
	if v == nil {
		return ""
	}
	return C.GoString(v)
}

// Open initializes the library and connects to the simulator opts.UDID.
// Only one Direct may be open per process.
func Open(opts Options) (devices.Companion, error) {
	if opts.UDID == "" {
		return nil, types.NewCompanionError(types.StatusInvalidParameter, codeInvalidParameter, "a target udid is required")
	}
	if err := acquireInstance(); err != nil {
		return nil, err
	}

	if err := check(C.idb_initialize()); err != nil {
		releaseInstance()
		return nil, fmt.Errorf("idb_initialize: %w", err)
	}

	udid := C.CString(opts.UDID)
	defer C.free(unsafe.Pointer(udid))

	if err := check(C.idb_connect_target(udid, C.IDB_TARGET_SIMULATOR)); err != nil {
		_ = C.idb_shutdown()
		releaseInstance()
		return nil, fmt.Errorf("connect %s: %w", opts.UDID, err)
	}
	utils.Verbose("idb_direct %s connected to %s", Version(), opts.UDID)

	d := &Direct{opts: opts}
	if opts.Logs {
		if err := d.startLogs(); err != nil {
			utils.Warn("companion log stream unavailable: %v", err)
		}
	}
	return d, nil
}

func (d *Direct) startLogs() error {
	key := callbacks.register(logSink(func(line string) {
		utils.CompanionLog(1, line)
	}))
	if err := check(C.start_log_stream(C.uintptr_t(key))); err != nil {
		callbacks.unregister(key)
		return err
	}
	d.logKey = key
	return nil
}

func (d *Direct) ID() string      { return d.opts.UDID }
func (d *Direct) Backend() string { return devices.BackendDirect }

// call runs fn with the library lock held. Native calls cannot be
// interrupted, so cancellation is only observed before the call starts.
func (d *Direct) call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return types.ErrNotInitialized
	}
	return fn()
}

func (d *Direct) TouchDown(ctx context.Context, x, y float64) error {
	return d.call(ctx, func() error {
		return check(C.idb_touch_event(C.IDB_TOUCH_DOWN, C.double(x), C.double(y)))
	})
}

func (d *Direct) TouchUp(ctx context.Context, x, y float64) error {
	return d.call(ctx, func() error {
		return check(C.idb_touch_event(C.IDB_TOUCH_UP, C.double(x), C.double(y)))
	})
}

func (d *Direct) Tap(ctx context.Context, x, y float64) error {
	return d.call(ctx, func() error {
		return check(C.idb_tap(C.double(x), C.double(y)))
	})
}

func (d *Direct) Swipe(ctx context.Context, from, to types.Point, duration time.Duration) error {
	return d.call(ctx, func() error {
		start := C.idb_point_t{x: C.double(from.X), y: C.double(from.Y)}
		end := C.idb_point_t{x: C.double(to.X), y: C.double(to.Y)}
		return check(C.idb_swipe(start, end, C.double(duration.Seconds())))
	})
}

// copyScreenshot copies an encoded screenshot out of native memory and
// frees it.
func copyScreenshot(shot *C.idb_screenshot_t) *types.Frame {
	defer C.idb_free_screenshot(shot)

	frame := &types.Frame{
		Data:   C.GoBytes(unsafe.Pointer(shot.data), C.int(shot.size)),
		Width:  int(shot.width),
		Height: int(shot.height),
	}
	if shot.format != nil {
		frame.Format = C.GoString(shot.format)
	}
	return frame
}

// copyShmScreenshot copies raw pixels out of the shared segment and frees it.
func copyShmScreenshot(shot *C.idb_shm_screenshot_t) *types.Frame {
	defer C.idb_free_screenshot_shm(shot)

	return &types.Frame{
		Data:   C.GoBytes(shot.base_address, C.int(shot.size)),
		Width:  int(shot.width),
		Height: int(shot.height),
		Format: fixedCString(C.GoBytes(unsafe.Pointer(&shot.format[0]), shmFormatLen)),
	}
}

func (d *Direct) TakeScreenshot(ctx context.Context) (*types.Frame, error) {
	var frame *types.Frame
	err := d.call(ctx, func() error {
		if d.opts.SharedMemory {
			var shot C.idb_shm_screenshot_t
			if err := check(C.idb_take_screenshot_shm(&shot)); err != nil {
				return err
			}
			frame = copyShmScreenshot(&shot)
			return nil
		}

		var shot C.idb_screenshot_t
		if err := check(C.idb_take_screenshot(&shot)); err != nil {
			return err
		}
		frame = copyScreenshot(&shot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(frame.Data) == 0 {
		return nil, types.NewCompanionError(types.StatusOperationFailed, codeOperationFailed, "companion returned an empty screenshot")
	}
	return frame, nil
}

// copyAppList copies bundle ids out of native memory and frees the list.
func copyAppList(ids **C.char, count C.size_t) []string {
	defer C.idb_free_app_list(ids, count)

	out := make([]string, 0, int(count))
	for i := C.size_t(0); i < count; i++ {
		out = append(out, C.GoString(C.app_at(ids, i)))
	}
	return out
}

// ListApps reports bundle ids only; the native API has no names or
// process state.
func (d *Direct) ListApps(ctx context.Context) ([]types.InstalledApp, error) {
	var ids []string
	err := d.call(ctx, func() error {
		var list **C.char
		var count C.size_t
		if err := check(C.idb_list_apps(&list, &count)); err != nil {
			return err
		}
		if list != nil {
			ids = copyAppList(list, count)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	apps := make([]types.InstalledApp, len(ids))
	for i, id := range ids {
		apps[i] = types.InstalledApp{BundleID: id}
	}
	return apps, nil
}

func withCString(s string, fn func(*C.char) C.idb_error_t) error {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return check(fn(cs))
}

func (d *Direct) LaunchApp(ctx context.Context, bundleID string) error {
	if bundleID == "" {
		return types.NewCompanionError(types.StatusInvalidParameter, codeInvalidParameter, "bundle id is required")
	}
	return d.call(ctx, func() error {
		return withCString(bundleID, func(id *C.char) C.idb_error_t {
			return C.idb_launch_app(id, nil)
		})
	})
}

func (d *Direct) TerminateApp(ctx context.Context, bundleID string) error {
	if bundleID == "" {
		return types.NewCompanionError(types.StatusInvalidParameter, codeInvalidParameter, "bundle id is required")
	}
	return d.call(ctx, func() error {
		return withCString(bundleID, func(id *C.char) C.idb_error_t {
			return C.idb_terminate_app(id)
		})
	})
}

func (d *Direct) InstallApp(ctx context.Context, path string) error {
	if path == "" {
		return types.NewCompanionError(types.StatusInvalidParameter, codeInvalidParameter, "app path is required")
	}

	key := callbacks.register(progressSink(func(done, total uint64) {
		utils.Verbose("install %s: %d/%d bytes", path, done, total)
	}))
	defer callbacks.unregister(key)

	return d.call(ctx, func() error {
		return withCString(path, func(p *C.char) C.idb_error_t {
			return C.install_app(p, C.uintptr_t(key))
		})
	})
}

// StreamFrames runs the native shared-memory stream until ctx is done or
// onFrame returns false. Frames that arrive while onFrame is still busy
// with the previous one are dropped.
func (d *Direct) StreamFrames(ctx context.Context, fps int, onFrame func(*types.Frame) bool) error {
	if fps <= 0 {
		return types.NewCompanionError(types.StatusInvalidParameter, codeInvalidParameter, "fps must be positive")
	}

	frames := make(chan *types.Frame, 1)
	key := callbacks.register(frameSink(func(data []byte, width, height, stride uint32, format string) {
		frame := &types.Frame{Data: data, Format: format, Width: int(width), Height: int(height)}
		select {
		case frames <- frame:
		default:
		}
	}))
	defer callbacks.unregister(key)

	if err := d.call(ctx, func() error {
		return check(C.stream_shm(C.uint32_t(fps), C.uintptr_t(key)))
	}); err != nil {
		return err
	}
	defer func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := check(C.idb_screenshot_stream_stop()); err != nil {
			utils.Verbose("stopping screenshot stream: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-frames:
			if !onFrame(frame) {
				return nil
			}
		}
	}
}

// Close stops the log stream, disconnects and shuts the library down.
func (d *Direct) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	defer releaseInstance()

	var errs []error
	if d.logKey != 0 {
		if err := check(C.idb_stop_log_stream()); err != nil {
			errs = append(errs, fmt.Errorf("stop log stream: %w", err))
		}
		callbacks.unregister(d.logKey)
		d.logKey = 0
	}
	if err := check(C.idb_disconnect_target()); err != nil {
		errs = append(errs, fmt.Errorf("disconnect: %w", err))
	}
	if err := check(C.idb_shutdown()); err != nil {
		errs = append(errs, fmt.Errorf("shutdown: %w", err))
	}
	return errors.Join(errs...)
}
