// Package permission models the capability set granted to a dashboard user.
package permission

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"wheel-rotation-backend/internal/store"
)

// Capability names understood by the wheel rotation routes.
const (
	WriteWheels       = "wheel_rotation:write"
	DeleteWheels      = "wheel_rotation:delete"
	ExportWheels      = "wheel_rotation:export"
	ManagePermissions = "users:permissions"
)

var known = map[string]bool{
	WriteWheels:       true,
	DeleteWheels:      true,
	ExportWheels:      true,
	ManagePermissions: true,
}

// Capabilities maps a capability name to whether it is granted.
type Capabilities map[string]bool

// Defaults returns the capabilities every user has unless overridden.
func Defaults() Capabilities {
	return Capabilities{
		ExportWheels:      true,
		WriteWheels:       false,
		DeleteWheels:      false,
		ManagePermissions: false,
	}
}

// Allows reports whether name is granted. Unknown names are denied.
func (c Capabilities) Allows(name string) bool {
	return c[name]
}

// Merge returns base with overrides applied on top.
func Merge(base, overrides Capabilities) Capabilities {
	out := make(Capabilities, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Known reports whether name is a capability the server enforces.
func Known(name string) bool {
	return known[name]
}

// Names returns all enforced capability names, sorted.
func Names() []string {
	names := make([]string, 0, len(known))
	for k := range known {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate rejects capability names the server does not know about.
func Validate(c Capabilities) error {
	for name := range c {
		if !Known(name) {
			return fmt.Errorf("unknown capability %q", name)
		}
	}
	return nil
}

// Resolve loads the stored overrides for userID and merges them over the
// defaults.
func Resolve(ctx context.Context, st store.PermissionStore, userID string) (Capabilities, error) {
	stored, err := st.GetPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Merge(Defaults(), stored), nil
}

// Bootstrap grants ManagePermissions to each listed admin so capabilities can
// be handed out once the gate is on. Blank entries are skipped.
func Bootstrap(ctx context.Context, st store.PermissionStore, admins []string) (int, error) {
	granted := 0
	for _, userID := range admins {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		if err := st.SetPermissions(ctx, userID, map[string]bool{ManagePermissions: true}); err != nil {
			return granted, fmt.Errorf("failed to grant %s to %s: %w", ManagePermissions, userID, err)
		}
		granted++
	}
	return granted, nil
}
