package valueobjects

import "strings"

// NormalizeDomain lowercases a host name and strips surrounding whitespace,
// one trailing dot and a single leading "www.".
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}

// DomainList is a normalized, de-duplicated allow-list of domains.
// An empty list means the license is not domain-bound.
type DomainList []string

func NewDomainList(domains []string) DomainList {
	if len(domains) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(domains))
	list := make(DomainList, 0, len(domains))
	for _, d := range domains {
		n := NormalizeDomain(d)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		list = append(list, n)
	}
	if len(list) == 0 {
		return nil
	}
	return list
}

func (l DomainList) IsRestricted() bool {
	return len(l) > 0
}

// Allows reports whether the caller-supplied domain matches an entry after
// normalization. An unrestricted list allows everything.
func (l DomainList) Allows(domain string) bool {
	if !l.IsRestricted() {
		return true
	}
	n := NormalizeDomain(domain)
	for _, d := range l {
		if d == n {
			return true
		}
	}
	return false
}

func (l DomainList) Strings() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l))
	copy(out, l)
	return out
}
