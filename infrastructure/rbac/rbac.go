package rbac

import (
	"sort"
	"strings"
	"sync"

	"loadsheet/infrastructure/sheet"
)

// Resource maps a role to a route it may call.
type Resource struct {
	Code   string
	Path   string
	Method string
	Role   sheet.Role
}

// Rbac stores route resources per role.
type Rbac struct {
	mu        sync.RWMutex
	resources map[sheet.Role][]Resource
	codes     map[string]struct{}
}

func New() *Rbac {
	return &Rbac{
		resources: make(map[sheet.Role][]Resource),
		codes:     make(map[string]struct{}),
	}
}

func (r *Rbac) Add(role sheet.Role, code, method, path string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources[role] = append(r.resources[role], Resource{
		Code:   code,
		Method: strings.ToUpper(method),
		Path:   path,
		Role:   role,
	})
	r.codes[code] = struct{}{}
}

// AddAll registers the same route for every listed role.
func (r *Rbac) AddAll(roles []sheet.Role, code, method, path string) {
	for _, role := range roles {
		r.Add(role, code, method, path)
	}
}

func (r *Rbac) Resources(roles ...sheet.Role) []Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Resource, 0)
	for _, role := range roles {
		out = append(out, r.resources[role]...)
	}
	return out
}

// Allowed reports whether role may call method on urlPath.
func (r *Rbac) Allowed(role sheet.Role, urlPath, method string) bool {
	if r == nil {
		return false
	}
	return ValidateResourceAccess(r.Resources(role), urlPath, method)
}

func (r *Rbac) RouteCodesSorted() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.codes))
	for name := range r.codes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ValidateResourceAccess(resources []Resource, urlPath, method string) bool {
	method = strings.ToUpper(method)
	for _, res := range resources {
		if res.Method != method {
			continue
		}
		if matchPath(res.Path, urlPath) {
			return true
		}
	}
	return false
}

func matchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}

	pattern = strings.Trim(pattern, "/")
	path = strings.Trim(path, "/")

	patternSeg := strings.Split(pattern, "/")
	pathSeg := strings.Split(path, "/")

	// /a/*/c matches exactly one segment per wildcard.
	if len(patternSeg) == len(pathSeg) {
		for i := range patternSeg {
			if patternSeg[i] == "*" {
				continue
			}
			if patternSeg[i] != pathSeg[i] {
				return false
			}
		}
		return true
	}

	// Trailing /* matches any deeper suffix.
	if len(patternSeg) > 0 && patternSeg[len(patternSeg)-1] == "*" {
		prefix := "/" + strings.Join(patternSeg[:len(patternSeg)-1], "/")
		return strings.HasPrefix("/"+path, prefix+"/") || "/"+path == prefix
	}

	return false
}
