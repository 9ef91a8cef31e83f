package token

import "slices"

// BaselineScope is always present on issued tokens, whether the caller
// relied on defaults or supplied an explicit scope list.
const BaselineScope = "activities:write"

var defaultScopes = []string{BaselineScope, "activities:read", "ontology:read"}

// DefaultScopes returns the scope set granted when a caller requests none.
func DefaultScopes() []string {
	return slices.Clone(defaultScopes)
}

// ResolveScopes applies the grant policy: an empty request yields the
// default set; an explicit request is honored with the baseline scope
// appended when missing.
func ResolveScopes(requested []string) []string {
	if len(requested) == 0 {
		return DefaultScopes()
	}
	granted := slices.Clone(requested)
	if !slices.Contains(granted, BaselineScope) {
		granted = append(granted, BaselineScope)
	}
	return granted
}
