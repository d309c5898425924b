package idbpb

import (
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

type AppProcessState int32

const (
	ProcessStateUnknown    AppProcessState = 0
	ProcessStateNotRunning AppProcessState = 1
	ProcessStateRunning    AppProcessState = 2
)

type ListAppsRequest struct {
	SuppressProcessState bool
}

func (r *ListAppsRequest) Marshal() ([]byte, error) {
	return appendBool(nil, 1, r.SuppressProcessState), nil
}

func (r *ListAppsRequest) Unmarshal(b []byte) error {
	*r = ListAppsRequest{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		v, n, err := consumeVarint(typ, b)
		r.SuppressProcessState = v != 0
		return n, err
	})
}

type InstalledAppInfo struct {
	BundleID          string
	Name              string
	Architectures     []string
	InstallType       string
	ProcessState      AppProcessState
	Debuggable        bool
	ProcessIdentifier uint64
}

func (a *InstalledAppInfo) marshal() []byte {
	b := appendString(nil, 1, a.BundleID)
	b = appendString(b, 2, a.Name)
	for _, arch := range a.Architectures {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendString(b, arch)
	}
	b = appendString(b, 5, a.InstallType)
	b = appendVarint(b, 6, uint64(a.ProcessState))
	b = appendBool(b, 7, a.Debuggable)
	return appendVarint(b, 8, a.ProcessIdentifier)
}

func (a *InstalledAppInfo) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(typ, b)
			a.BundleID = v
			return n, err
		case 2:
			v, n, err := consumeString(typ, b)
			a.Name = v
			return n, err
		case 4:
			v, n, err := consumeString(typ, b)
			a.Architectures = append(a.Architectures, v)
			return n, err
		case 5:
			v, n, err := consumeString(typ, b)
			a.InstallType = v
			return n, err
		case 6:
			v, n, err := consumeVarint(typ, b)
			a.ProcessState = AppProcessState(v)
			return n, err
		case 7:
			v, n, err := consumeVarint(typ, b)
			a.Debuggable = v != 0
			return n, err
		case 8:
			v, n, err := consumeVarint(typ, b)
			a.ProcessIdentifier = v
			return n, err
		}
		return 0, nil
	})
}

type ListAppsResponse struct {
	Apps []InstalledAppInfo
}

func (r *ListAppsResponse) Marshal() ([]byte, error) {
	var b []byte
	for i := range r.Apps {
		b = appendMessage(b, 1, r.Apps[i].marshal())
	}
	return b, nil
}

func (r *ListAppsResponse) Unmarshal(b []byte) error {
	*r = ListAppsResponse{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		body, n, err := consumeBytes(typ, b)
		if err != nil {
			return 0, err
		}
		var app InstalledAppInfo
		if err := app.unmarshal(body); err != nil {
			return 0, err
		}
		r.Apps = append(r.Apps, app)
		return n, nil
	})
}

type TerminateRequest struct {
	BundleID string
}

func (r *TerminateRequest) Marshal() ([]byte, error) {
	return appendString(nil, 1, r.BundleID), nil
}

func (r *TerminateRequest) Unmarshal(b []byte) error {
	*r = TerminateRequest{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		v, n, err := consumeString(typ, b)
		r.BundleID = v
		return n, err
	})
}

type TerminateResponse struct{}

func (*TerminateResponse) Marshal() ([]byte, error) { return nil, nil }
func (*TerminateResponse) Unmarshal([]byte) error   { return nil }

// LaunchStart is the Start control message of a launch stream.
type LaunchStart struct {
	BundleID            string
	Env                 map[string]string
	AppArgs             []string
	ForegroundIfRunning bool
	WaitFor             bool
	WaitForDebugger     bool
}

func (s *LaunchStart) marshal() []byte {
	b := appendString(nil, 1, s.BundleID)

	keys := make([]string, 0, len(s.Env))
	for k := range s.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry := appendString(nil, 1, k)
		entry = appendString(entry, 2, s.Env[k])
		b = appendMessage(b, 2, entry)
	}

	for _, arg := range s.AppArgs {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, arg)
	}
	b = appendBool(b, 4, s.ForegroundIfRunning)
	b = appendBool(b, 5, s.WaitFor)
	return appendBool(b, 6, s.WaitForDebugger)
}

func (s *LaunchStart) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(typ, b)
			s.BundleID = v
			return n, err
		case 2:
			entry, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			var key, value string
			err = walk(entry, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				var n int
				var err error
				switch num {
				case 1:
					key, n, err = consumeString(typ, b)
				case 2:
					value, n, err = consumeString(typ, b)
				}
				return n, err
			})
			if s.Env == nil {
				s.Env = map[string]string{}
			}
			s.Env[key] = value
			return n, err
		case 3:
			v, n, err := consumeString(typ, b)
			s.AppArgs = append(s.AppArgs, v)
			return n, err
		case 4, 5, 6:
			v, n, err := consumeVarint(typ, b)
			switch num {
			case 4:
				s.ForegroundIfRunning = v != 0
			case 5:
				s.WaitFor = v != 0
			default:
				s.WaitForDebugger = v != 0
			}
			return n, err
		}
		return 0, nil
	})
}

// LaunchRequest is one message of the launch bidi stream. Exactly one of
// Start and Stop is set.
type LaunchRequest struct {
	Start *LaunchStart
	Stop  bool
}

func (r *LaunchRequest) Marshal() ([]byte, error) {
	if r.Start != nil {
		return appendMessage(nil, 1, r.Start.marshal()), nil
	}
	if r.Stop {
		return appendMessage(nil, 2, nil), nil
	}
	return nil, nil
}

func (r *LaunchRequest) Unmarshal(b []byte) error {
	*r = LaunchRequest{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			body, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			r.Start = &LaunchStart{}
			return n, r.Start.unmarshal(body)
		case 2:
			_, n, err := consumeBytes(typ, b)
			r.Stop = true
			return n, err
		}
		return 0, nil
	})
}

// LaunchResponse messages stream process output and debugger details; idbtap
// only drains them, so their fields are skipped.
type LaunchResponse struct{}

func (*LaunchResponse) Marshal() ([]byte, error) { return nil, nil }

func (*LaunchResponse) Unmarshal(b []byte) error {
	return walk(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return 0, nil })
}
