package auth

import "slices"

// Evaluate decides whether holder satisfies req.
//
// Every required permission must be granted (AND). When that passes, at least
// one required role must be granted (OR). A failing permission check returns
// false without looking at roles. An empty requirement is always satisfied.
func Evaluate(holder ClaimsHolder, req Requirement) bool {
	var granted, roles []string
	if holder != nil {
		granted = holder.GrantedPermissions()
		roles = holder.GrantedRoles()
	}

	if len(req.Permissions) > 0 {
		for _, p := range req.Permissions {
			if !slices.Contains(granted, p) {
				return false
			}
		}
	}

	if len(req.Roles) > 0 {
		return slices.ContainsFunc(req.Roles, func(r string) bool {
			return slices.Contains(roles, r)
		})
	}

	return true
}

// IsEmpty reports whether the requirement asks for nothing.
func (r Requirement) IsEmpty() bool {
	return len(r.Permissions) == 0 && len(r.Roles) == 0
}
