package grokit

import "strings"

// Model identifies the model a turn is answered by. The named constants are
// the ids the service is known to accept; any other id passes through to the
// wire unchanged so newer models work without a library release.
type Model string

const (
	// ModelGrok2 is the full Grok 2 model.
	ModelGrok2 Model = "grok-2"
	// ModelGrok2A is the Grok 2 variant with the alternate persona.
	ModelGrok2A Model = "grok-2a"
	// ModelGrok2Mini is the smaller, faster Grok 2 model.
	ModelGrok2Mini Model = "grok-2-mini"
)

// KnownModels returns the named models.
func KnownModels() []Model {
	return []Model{ModelGrok2, ModelGrok2A, ModelGrok2Mini}
}

// OtherModel wraps a model id that has no named constant.
func OtherModel(id string) Model {
	return Model(id)
}

// ParseModel returns the named model matching s (case-insensitively), or s
// itself as an unlisted model.
func ParseModel(s string) Model {
	s = strings.TrimSpace(s)
	for _, m := range KnownModels() {
		if strings.EqualFold(s, string(m)) {
			return m
		}
	}
	return Model(s)
}

// IsKnown reports whether m is one of the named models.
func (m Model) IsKnown() bool {
	for _, k := range KnownModels() {
		if m == k {
			return true
		}
	}
	return false
}

// String returns the wire id.
func (m Model) String() string {
	return string(m)
}
