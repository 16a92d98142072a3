package giveaway

// Requirements are the process-wide eligibility rules applied on top of a giveaway's
// own allowed roles.
type Requirements struct {
	// DefaultRoles always satisfy a role restriction, whatever the giveaway allows.
	DefaultRoles []string
	// MinTenureDays is the minimum membership age; 0 disables the check.
	MinTenureDays int
}

// RoleAccepted reports whether any of held is in allowed or in the default roles.
func (r Requirements) RoleAccepted(held, allowed []string) bool {
	if len(held) == 0 {
		return false
	}
	accepted := make(map[string]struct{}, len(allowed)+len(r.DefaultRoles))
	for _, id := range allowed {
		accepted[id] = struct{}{}
	}
	for _, id := range r.DefaultRoles {
		accepted[id] = struct{}{}
	}
	for _, id := range held {
		if _, ok := accepted[id]; ok {
			return true
		}
	}
	return false
}
