package entity

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// roleRank orders roles by privilege. Higher wins when a token can only carry
// a single role claim.
var roleRank = map[string]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

// IsValidRole reports whether name is part of the closed role set.
func IsValidRole(name string) bool {
	_, ok := roleRank[name]
	return ok
}

// ParseRoles filters the requested names down to the closed role set.
// Unknown names are dropped silently; duplicates collapse to one entry.
func ParseRoles(names []string) RoleList {
	seen := make(map[string]bool, len(names))
	out := make(RoleList, 0, len(names))
	for _, name := range names {
		if !IsValidRole(name) || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// PrimaryRole picks the highest-privilege role from the set. Accounts always
// hold at least one role, but an empty set still resolves to USER.
func PrimaryRole(roles RoleList) string {
	best := ""
	bestRank := 0
	for _, role := range roles {
		if rank := roleRank[role]; rank > bestRank {
			best = role
			bestRank = rank
		}
	}
	if best == "" {
		return RoleUser
	}
	return best
}
