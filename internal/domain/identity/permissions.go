package identity

// ResolveEffectivePermissions computes (group features ∪ allow) \ deny for a
// user. Deny always wins. The result is deduplicated and sorted.
func ResolveEffectivePermissions(groups []*AccessGroup, user *User) []string {
	granted := make(map[string]struct{})
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, f := range NormalizeFeatures(g.Features) {
			granted[f] = struct{}{}
		}
	}
	for _, f := range NormalizeFeatures(user.AllowFeatures) {
		granted[f] = struct{}{}
	}
	for _, f := range NormalizeFeatures(user.DeniedFeatures) {
		delete(granted, f)
	}
	return sortedKeys(granted)
}

// HasPermission reports whether a permission snapshot contains the feature
func HasPermission(permissions []string, feature string) bool {
	for _, p := range permissions {
		if p == feature {
			return true
		}
	}
	return false
}
