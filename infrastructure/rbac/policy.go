package rbac

import (
	"fmt"
	"strings"

	"loadsheet/infrastructure/sheet"
)

// GuardResult explains a policy decision.
type GuardResult struct {
	Allowed bool
	Reason  string
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(format string, args ...any) GuardResult {
	return GuardResult{Reason: fmt.Sprintf(format, args...)}
}

// CanTransition decides whether role may move a sheet from one status to
// another. from == "" means creating a new sheet; from == to covers edits
// that keep the status.
func CanTransition(role sheet.Role, from, to sheet.Status) GuardResult {
	if !knownRole(role) {
		return deny("unknown role %q", role)
	}
	switch {
	case from == "" && to == sheet.StatusDraft,
		from == sheet.StatusDraft && to == sheet.StatusDraft,
		from == sheet.StatusDraft && to == sheet.StatusLocked:
		if role == sheet.RoleAdmin || role == sheet.RoleStagingSupervisor {
			return allow()
		}
		return deny("%s cannot change staging sheets", role)
	case from == sheet.StatusLocked && to == sheet.StatusLocked,
		from == sheet.StatusLocked && to == sheet.StatusCompleted:
		if role == sheet.RoleAdmin || role == sheet.RoleLoadingSupervisor {
			return allow()
		}
		return deny("%s cannot change loading sheets", role)
	default:
		return deny("no transition from %s to %s", orNew(from), to)
	}
}

// CanEditLoading covers matrix, additional item and loading header edits.
func CanEditLoading(role sheet.Role) GuardResult {
	return CanTransition(role, sheet.StatusLocked, sheet.StatusLocked)
}

// CanDelete is restricted to administrators.
func CanDelete(role sheet.Role) GuardResult {
	if role == sheet.RoleAdmin {
		return allow()
	}
	return deny("only %s may delete sheets", sheet.RoleAdmin)
}

// CanAnnotate covers comments and evidence images, which any known role may
// add in every state.
func CanAnnotate(role sheet.Role) GuardResult {
	if !knownRole(role) {
		return deny("unknown role %q", role)
	}
	return allow()
}

// Roles lists every role in display order.
func Roles() []sheet.Role {
	return []sheet.Role{sheet.RoleAdmin, sheet.RoleStagingSupervisor, sheet.RoleLoadingSupervisor}
}

func knownRole(role sheet.Role) bool {
	for _, r := range Roles() {
		if r == role {
			return true
		}
	}
	return false
}

// ParseRole accepts the canonical role names case-insensitively.
func ParseRole(v string) (sheet.Role, error) {
	for _, r := range Roles() {
		if strings.EqualFold(string(r), strings.TrimSpace(v)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", v)
}

func orNew(s sheet.Status) string {
	if s == "" {
		return "NEW"
	}
	return string(s)
}
