// Package identity holds users, access groups and the feature-based
// permission model.
package identity

import (
	"sort"
	"strings"
)

// Feature codes guarding the HTTP surface
const (
	FeaturePointTransactions = "point-transactions"
	FeatureComandas          = "comandas"
	FeatureMesas             = "mesas"
	FeatureAccessGroups      = "access-groups"
	FeatureUsers             = "users"
)

// KnownFeatures lists every feature code understood by the API
var KnownFeatures = []string{
	FeaturePointTransactions,
	FeatureComandas,
	FeatureMesas,
	FeatureAccessGroups,
	FeatureUsers,
}

// NormalizeFeatures trims, drops blanks and deduplicates feature codes.
// The result is sorted.
func NormalizeFeatures(features []string) []string {
	set := make(map[string]struct{}, len(features))
	for _, f := range features {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		set[f] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
