package target

import "strings"

// Predicate decides whether a caller supplied message reference is a
// placeholder rather than a real protocol identifier.
type Predicate interface {
	IsPlaceholder(ref string) bool
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc func(ref string) bool

func (f PredicateFunc) IsPlaceholder(ref string) bool {
	return f(ref)
}

var (
	DefaultPrefixes        = []string{"$INPUT", "$LATEST", "Queued", "$LA:"}
	DefaultSigil           = "$"
	DefaultDomainFragments = []string{":"}
)

// PrefixPredicate flags references starting with a known placeholder prefix,
// and references starting with Sigil that embed none of DomainFragments.
// Event ids from room versions that carry no server domain fail the sigil
// rule; clear Sigil to accept them.
type PrefixPredicate struct {
	Prefixes        []string
	Sigil           string
	DomainFragments []string
}

// DefaultPredicate returns the built-in placeholder rules.
func DefaultPredicate() PrefixPredicate {
	return PrefixPredicate{
		Prefixes:        append([]string(nil), DefaultPrefixes...),
		Sigil:           DefaultSigil,
		DomainFragments: append([]string(nil), DefaultDomainFragments...),
	}
}

func (p PrefixPredicate) IsPlaceholder(ref string) bool {
	for _, prefix := range p.Prefixes {
		if prefix != "" && strings.HasPrefix(ref, prefix) {
			return true
		}
	}
	if p.Sigil == "" || !strings.HasPrefix(ref, p.Sigil) {
		return false
	}
	for _, fragment := range p.DomainFragments {
		if fragment != "" && strings.Contains(ref, fragment) {
			return false
		}
	}
	return true
}

// Usable reports whether ref can be sent to the protocol as is.
func Usable(predicate Predicate, ref string) bool {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return false
	}
	if predicate == nil {
		return true
	}
	return !predicate.IsPlaceholder(trimmed)
}
