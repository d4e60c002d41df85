package composition

import (
	"sort"
	"strings"
)

// DefaultAliasGroups lists provider spellings found in imported question banks
// that refer to the same catalogue. The first entry of a group is canonical.
var DefaultAliasGroups = [][]string{
	{"leben_in_deutschland", "LiD", "lid", "LID", "Deutschland-in-Leben", "Leben in Deutschland", "leben-in-deutschland"},
	{"dtz", "DTZ", "Deutsch-Test für Zuwanderer", "deutsch_test_fuer_zuwanderer"},
}

// AliasResolver maps a provider string onto the set of stored provider values
// that must be treated as equivalent. It is read-only after construction.
type AliasResolver struct {
	groups [][]string
	byKey  map[string]int
}

// NewAliasResolver builds a resolver from alias groups. Groups sharing a
// spelling (case-insensitively) are merged, so lookups stay symmetric.
func NewAliasResolver(groups ...[]string) *AliasResolver {
	r := &AliasResolver{byKey: make(map[string]int)}
	for _, g := range groups {
		r.add(g)
	}
	return r
}

func foldKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func (r *AliasResolver) add(group []string) {
	target := -1
	members := make([]string, 0, len(group))
	for _, v := range group {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		members = append(members, v)
		idx, ok := r.byKey[foldKey(v)]
		if !ok || idx == target {
			continue
		}
		if target == -1 {
			target = idx
			continue
		}
		r.merge(idx, target)
	}
	if len(members) == 0 {
		return
	}
	if target == -1 {
		r.groups = append(r.groups, nil)
		target = len(r.groups) - 1
	}
	for _, v := range members {
		r.insert(target, v)
	}
}

// merge moves every member of group src into group dst.
func (r *AliasResolver) merge(src, dst int) {
	for _, v := range r.groups[src] {
		r.insert(dst, v)
	}
	r.groups[src] = nil
}

func (r *AliasResolver) insert(idx int, v string) {
	for _, existing := range r.groups[idx] {
		if existing == v {
			r.byKey[foldKey(v)] = idx
			return
		}
	}
	r.groups[idx] = append(r.groups[idx], v)
	r.byKey[foldKey(v)] = idx
}

// Resolve returns the sorted set of provider values equivalent to provider.
// An unknown provider resolves to a singleton holding the trimmed input.
func (r *AliasResolver) Resolve(provider string) []string {
	set, _ := r.Lookup(provider)
	return set
}

// Lookup is Resolve plus whether the provider belongs to a known alias group.
func (r *AliasResolver) Lookup(provider string) ([]string, bool) {
	trimmed := strings.TrimSpace(provider)
	idx, ok := r.byKey[foldKey(trimmed)]
	if !ok {
		return []string{trimmed}, false
	}
	set := append([]string(nil), r.groups[idx]...)
	sort.Strings(set)
	return set, true
}

// Canonical returns the canonical spelling of provider, or the trimmed input
// when it is unknown.
func (r *AliasResolver) Canonical(provider string) string {
	trimmed := strings.TrimSpace(provider)
	idx, ok := r.byKey[foldKey(trimmed)]
	if !ok {
		return trimmed
	}
	return r.groups[idx][0]
}

// Groups returns a copy of the alias groups, canonical spelling first.
func (r *AliasResolver) Groups() [][]string {
	out := make([][]string, 0, len(r.groups))
	for _, g := range r.groups {
		if len(g) == 0 {
			continue
		}
		out = append(out, append([]string(nil), g...))
	}
	return out
}
