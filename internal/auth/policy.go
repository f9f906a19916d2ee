package auth

import (
	"net/http"
	"strings"
)

// routeRule grants read (GET/HEAD) and write access to one API resource.
// A path matches when it equals prefix or continues it with "/".
type routeRule struct {
	prefix string
	read   Role
	write  Role
}

var clinicRoutes = []routeRule{
	{prefix: "/api/v1/facts", read: RoleViewer, write: RoleOperator},
	{prefix: "/api/v1/dashboard", read: RoleViewer, write: RoleAdmin},
	{prefix: "/api/v1/rca", read: RoleViewer, write: RoleOperator},
	// Report generation is a POST but only consumes quota, so viewers may export.
	{prefix: "/api/v1/exports", read: RoleViewer, write: RoleViewer},
}

// Policy determines the role a request needs.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
	routes         []routeRule
}

// NewDefaultPolicy builds the clinic API policy with the given exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes, routes: clinicRoutes}
}

// IsExempt reports whether a request skips auth entirely. CORS preflights always do.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil || r.Method == http.MethodOptions {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves the role for the request. Unlisted /api/ paths need
// viewer to read and admin to write. Paths outside /api/ need nothing.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	read := isRead(r.Method)
	for _, rule := range p.routes {
		if path != rule.prefix && !strings.HasPrefix(path, rule.prefix+"/") {
			continue
		}
		if read {
			return rule.read, true
		}
		return rule.write, true
	}
	if strings.HasPrefix(path, "/api/") {
		if read {
			return RoleViewer, true
		}
		return RoleAdmin, true
	}
	return "", false
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}
