package commands

import (
	"context"
	"fmt"
)

// CompanionInfo describes the session commands would use for a device.
type CompanionInfo struct {
	ID      string `json:"id"`
	Backend string `json:"backend"`
	Address string `json:"address,omitempty"`
	Spawned bool   `json:"spawned"`
}

// addresser is implemented by network backed companions.
type addresser interface {
	Address() string
}

func InfoCommand(ctx context.Context, deviceID string) (*CompanionInfo, error) {
	companion, release, err := FindCompanion(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("error finding device: %w", err)
	}
	defer release()

	info := &CompanionInfo{
		ID:      companion.ID(),
		Backend: companion.Backend(),
		Spawned: CurrentConfig().Companion.Spawn,
	}
	if a, ok := companion.(addresser); ok {
		info.Address = a.Address()
	}
	return info, nil
}
