package rbac

import (
	"testing"

	"loadsheet/infrastructure/sheet"
)

func TestMatchPathWildcardSegments(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		ok      bool
	}{
		{pattern: "/api/sheets/*/lock", path: "/api/sheets/SH-1/lock", ok: true},
		{pattern: "/api/sheets/*/loading/cells", path: "/api/sheets/SH-1/loading/cells", ok: true},
		{pattern: "/exports/sheets/*", path: "/exports/sheets/SH-1.csv", ok: true},
		{pattern: "/api/sheets", path: "/api/sheets", ok: true},
		{pattern: "/api/sheets", path: "/api/sheets/SH-1", ok: false},
		{pattern: "/api/sheets/*/lock", path: "/api/sheets/SH-1/complete", ok: false},
	}

	for _, tc := range cases {
		if got := matchPath(tc.pattern, tc.path); got != tc.ok {
			t.Fatalf("pattern=%s path=%s expected=%v got=%v", tc.pattern, tc.path, tc.ok, got)
		}
	}
}

func TestRbacAllowedPerRole(t *testing.T) {
	r := New()
	r.AddAll([]sheet.Role{sheet.RoleAdmin, sheet.RoleStagingSupervisor}, "sheet.lock", "post", "/api/sheets/*/lock")
	r.Add(sheet.RoleLoadingSupervisor, "sheet.complete", "POST", "/api/sheets/*/complete")

	if !r.Allowed(sheet.RoleStagingSupervisor, "/api/sheets/SH-1/lock", "POST") {
		t.Fatalf("staging supervisor should reach lock")
	}
	if r.Allowed(sheet.RoleLoadingSupervisor, "/api/sheets/SH-1/lock", "POST") {
		t.Fatalf("loading supervisor must not reach lock")
	}
	if r.Allowed(sheet.RoleAdmin, "/api/sheets/SH-1/lock", "GET") {
		t.Fatalf("method must match")
	}
	codes := r.RouteCodesSorted()
	if len(codes) != 2 || codes[0] != "sheet.complete" {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		role    sheet.Role
		from    sheet.Status
		to      sheet.Status
		allowed bool
	}{
		{"staging creates", sheet.RoleStagingSupervisor, "", sheet.StatusDraft, true},
		{"loading cannot create", sheet.RoleLoadingSupervisor, "", sheet.StatusDraft, false},
		{"staging saves draft", sheet.RoleStagingSupervisor, sheet.StatusDraft, sheet.StatusDraft, true},
		{"staging locks", sheet.RoleStagingSupervisor, sheet.StatusDraft, sheet.StatusLocked, true},
		{"admin locks", sheet.RoleAdmin, sheet.StatusDraft, sheet.StatusLocked, true},
		{"loading cannot lock", sheet.RoleLoadingSupervisor, sheet.StatusDraft, sheet.StatusLocked, false},
		{"loading completes", sheet.RoleLoadingSupervisor, sheet.StatusLocked, sheet.StatusCompleted, true},
		{"admin completes", sheet.RoleAdmin, sheet.StatusLocked, sheet.StatusCompleted, true},
		{"staging cannot complete", sheet.RoleStagingSupervisor, sheet.StatusLocked, sheet.StatusCompleted, false},
		{"no unlock", sheet.RoleAdmin, sheet.StatusLocked, sheet.StatusDraft, false},
		{"no skip", sheet.RoleAdmin, sheet.StatusDraft, sheet.StatusCompleted, false},
		{"completed is terminal", sheet.RoleAdmin, sheet.StatusCompleted, sheet.StatusLocked, false},
		{"unknown role", sheet.Role("GUEST"), "", sheet.StatusDraft, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanTransition(tc.role, tc.from, tc.to)
			if got.Allowed != tc.allowed {
				t.Fatalf("expected allowed=%v, got %+v", tc.allowed, got)
			}
			if !got.Allowed && got.Reason == "" {
				t.Fatalf("denials must carry a reason")
			}
		})
	}
}

func TestCanEditLoadingDeleteAndAnnotate(t *testing.T) {
	if !CanEditLoading(sheet.RoleLoadingSupervisor).Allowed || CanEditLoading(sheet.RoleStagingSupervisor).Allowed {
		t.Fatalf("loading edits belong to loading supervisors")
	}
	if CanDelete(sheet.RoleStagingSupervisor).Allowed || !CanDelete(sheet.RoleAdmin).Allowed {
		t.Fatalf("delete is admin only")
	}
	if !CanAnnotate(sheet.RoleLoadingSupervisor).Allowed || CanAnnotate("").Allowed {
		t.Fatalf("any known role may annotate")
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" loading_supervisor ")
	if err != nil || role != sheet.RoleLoadingSupervisor {
		t.Fatalf("expected LOADING_SUPERVISOR, got %q %v", role, err)
	}
	if _, err := ParseRole("scanner"); err == nil {
		t.Fatalf("expected unknown role error")
	}
}
