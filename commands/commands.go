package commands

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mobile-next/idbtap/config"
	"github.com/mobile-next/idbtap/devices"
	"github.com/mobile-next/idbtap/devices/idb"
	"github.com/mobile-next/idbtap/devices/idbdirect"
	"github.com/mobile-next/idbtap/utils"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

// maxCachedCompanions bounds how many companion sessions stay open between
// commands. The least recently used one is closed when the cache is full.
const maxCachedCompanions = 4

// Opener opens a companion session for the given settings.
type Opener func(ctx context.Context, c config.Companion) (devices.Companion, error)

// session is a cached companion. Commands hold its lease for their whole
// run, so only one command drives a companion at a time.
type session struct {
	key       string
	companion devices.Companion
	lease     chan struct{}

	// guarded by cacheMu
	holders int
	evicted bool
}

func (s *session) close() {
	utils.Verbose("Closing companion %s", s.key)
	if err := s.companion.Close(); err != nil {
		utils.Warn("Error closing companion %s: %v", s.key, err)
	}
	if r := GetRegistry(); r != nil {
		r.Release(s.companion)
	}
}

var (
	stateMu      sync.Mutex
	currentCfg   *config.Config
	registry     *devices.Registry
	shutdownHook *devices.ShutdownHook
	opener       Opener = OpenCompanion

	// cacheMu makes get-or-open atomic and guards session holders.
	cacheMu    sync.Mutex
	companions *lru.Cache[string, *session]
)

func init() {
	companions = newCompanionCache()
}

// newCompanionCache builds the session cache. Evictions run under cacheMu;
// a session still held by a command is closed when its last holder
// releases it.
func newCompanionCache() *lru.Cache[string, *session] {
	cache, err := lru.NewWithEvict(maxCachedCompanions, func(key string, s *session) {
		if s.holders > 0 {
			s.evicted = true
			return
		}
		s.close()
	})
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return cache
}

// SetConfig sets the configuration used to open companions and run
// calibrations. Called once at startup after flags are parsed.
func SetConfig(cfg *config.Config) {
	stateMu.Lock()
	defer stateMu.Unlock()
	currentCfg = cfg
}

// CurrentConfig returns the active configuration, or the defaults when
// SetConfig was never called.
func CurrentConfig() *config.Config {
	stateMu.Lock()
	defer stateMu.Unlock()
	if currentCfg == nil {
		currentCfg = config.Default()
	}
	return currentCfg
}

// SetRegistry sets the global companion registry for cleanup tracking.
// Companions opened by commands are registered so SIGINT/SIGTERM can close
// them.
func SetRegistry(r *devices.Registry) {
	stateMu.Lock()
	defer stateMu.Unlock()
	registry = r
}

// GetRegistry returns the current registry, nil before SetRegistry.
func GetRegistry() *devices.Registry {
	stateMu.Lock()
	defer stateMu.Unlock()
	return registry
}

func SetShutdownHook(h *devices.ShutdownHook) {
	stateMu.Lock()
	defer stateMu.Unlock()
	shutdownHook = h
}

func GetShutdownHook() *devices.ShutdownHook {
	stateMu.Lock()
	defer stateMu.Unlock()
	return shutdownHook
}

// SetOpener replaces how companions are opened and returns a function that
// restores the previous opener. Cached companions are closed first.
func SetOpener(o Opener) (restore func()) {
	ReleaseCompanions()

	stateMu.Lock()
	previous := opener
	opener = o
	stateMu.Unlock()

	return func() {
		ReleaseCompanions()
		stateMu.Lock()
		opener = previous
		stateMu.Unlock()
	}
}

// OpenCompanion opens a session on the configured backend. With spawn set
// an idb_companion is started for the udid and stopped again on Close.
func OpenCompanion(ctx context.Context, c config.Companion) (devices.Companion, error) {
	switch c.Backend {
	case devices.BackendDirect:
		return idbdirect.Open(idbdirect.Options{
			UDID:         c.UDID,
			SharedMemory: c.SharedMemory,
			Logs:         c.Logs || utils.IsVerbose(),
		})

	case devices.BackendGRPC, "":
		opts := idb.Options{
			Address:     c.Address,
			UDID:        c.UDID,
			CallTimeout: c.CallTimeout,
			Press:       CurrentConfig().Calibration.Timing.Press,
		}

		if !c.Spawn {
			return idb.Connect(opts)
		}

		process, err := idb.Spawn(ctx, c.Path, c.UDID, idb.DefaultStartTimeout)
		if err != nil {
			return nil, err
		}
		// Stop is idempotent, the hook covers exits that skip Close
		if hook := GetShutdownHook(); hook != nil {
			hook.Register("idb_companion "+c.UDID, process.Stop)
		}

		opts.Address = process.Address
		client, err := idb.Connect(opts)
		if err != nil {
			_ = process.Stop()
			return nil, err
		}
		client.AttachProcess(process)
		return client, nil

	default:
		return nil, devices.ValidateBackend(c.Backend)
	}
}

func cacheKey(c config.Companion) string {
	if c.Spawn {
		return fmt.Sprintf("%s/spawn/%s", c.Backend, c.UDID)
	}
	return fmt.Sprintf("%s/%s/%s", c.Backend, c.Address, c.UDID)
}

// FindCompanion returns an open companion for deviceID, reusing a cached
// session when possible. An empty deviceID uses the configured udid. The
// caller owns the session until it calls release; other callers for the
// same session wait. release is safe to call more than once.
func FindCompanion(ctx context.Context, deviceID string) (devices.Companion, func(), error) {
	settings := CurrentConfig().Companion
	if deviceID != "" {
		settings.UDID = deviceID
	}

	if err := devices.ValidateBackend(settings.Backend); err != nil {
		return nil, nil, err
	}

	s, err := holdSession(ctx, settings)
	if err != nil {
		return nil, nil, err
	}

	select {
	case s.lease <- struct{}{}:
	case <-ctx.Done():
		dropHolder(s)
		return nil, nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			<-s.lease
			dropHolder(s)
		})
	}
	return s.companion, release, nil
}

// holdSession gets or opens the session for settings and registers the
// caller as a holder, all under cacheMu.
func holdSession(ctx context.Context, settings config.Companion) (*session, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := cacheKey(settings)
	if s, ok := companions.Get(key); ok {
		s.holders++
		return s, nil
	}

	stateMu.Lock()
	open := opener
	stateMu.Unlock()

	c, err := open(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to open companion: %w", err)
	}

	s := &session{key: key, companion: c, lease: make(chan struct{}, 1), holders: 1}
	companions.Add(key, s)
	if r := GetRegistry(); r != nil {
		r.Register(c)
	}

	utils.Verbose("Opened %s companion %s", c.Backend(), c.ID())
	return s, nil
}

func dropHolder(s *session) {
	cacheMu.Lock()
	s.holders--
	closeNow := s.evicted && s.holders == 0
	cacheMu.Unlock()

	if closeNow {
		s.close()
	}
}

// ReleaseCompanions closes every cached companion. Sessions still held by a
// running command are closed when that command finishes.
func ReleaseCompanions() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	companions.Purge()
}
