package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/zatekoja/contentexplore/pkg/errors"
)

// GroupType controls how many options of a facet can be selected
type GroupType string

const (
	// GroupTypeSingle allows exactly one selected option and applies on select
	GroupTypeSingle GroupType = "single"

	// GroupTypeMulti allows any number of selected options and applies on demand
	GroupTypeMulti GroupType = "multi"
)

// Valid reports whether t is a known group type
func (t GroupType) Valid() bool {
	return t == GroupTypeSingle || t == GroupTypeMulti
}

// OptionID identifies an option within its group.
// Backends send both numeric and string ids, so decoding accepts either.
type OptionID string

// UnmarshalJSON implements json.Unmarshaler
func (id *OptionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = OptionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("option id must be a string or number: %w", err)
	}
	*id = OptionID(n.String())
	return nil
}

// UnmarshalYAML accepts scalar ids of any YAML type
func (id *OptionID) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		return fmt.Errorf("option id must not be empty")
	case string:
		*id = OptionID(v)
	default:
		*id = OptionID(fmt.Sprint(v))
	}
	return nil
}

// FilterOption is one selectable value of a facet
type FilterOption struct {
	ID       OptionID `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Selected bool     `json:"selected" yaml:"selected"`
}

// FilterGroup is one filterable facet (sort, content type, author ...)
type FilterGroup struct {
	Key     string         `json:"key" yaml:"key"`
	Type    GroupType      `json:"type" yaml:"type"`
	Label   string         `json:"label,omitempty" yaml:"label,omitempty"`
	Options []FilterOption `json:"options" yaml:"options"`
}

// Option returns the index of the option with the given id, or -1
func (g FilterGroup) Option(id OptionID) int {
	for i, opt := range g.Options {
		if opt.ID == id {
			return i
		}
	}
	return -1
}

// SelectedIDs returns the selected option ids in display order
func (g FilterGroup) SelectedIDs() []OptionID {
	var ids []OptionID
	for _, opt := range g.Options {
		if opt.Selected {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// CloneOptions returns a copy of the option slice that can be modified freely
func (g FilterGroup) CloneOptions() []FilterOption {
	out := make([]FilterOption, len(g.Options))
	copy(out, g.Options)
	return out
}

// FilterState is an immutable set of facets keyed by FilterGroup.Key.
// Updates go through WithGroup, which shares every untouched group.
type FilterState struct {
	order  []string
	groups map[string]FilterGroup
}

// NewFilterState builds a state from groups in display order
func NewFilterState(groups ...FilterGroup) (FilterState, error) {
	state := FilterState{
		order:  make([]string, 0, len(groups)),
		groups: make(map[string]FilterGroup, len(groups)),
	}
	for _, g := range groups {
		if strings.TrimSpace(g.Key) == "" {
			return FilterState{}, apperrors.NewValidationError("filter group key is required")
		}
		if !g.Type.Valid() {
			return FilterState{}, apperrors.NewValidationError(fmt.Sprintf("filter group %q has unknown type %q", g.Key, g.Type))
		}
		if _, dup := state.groups[g.Key]; dup {
			return FilterState{}, apperrors.NewValidationError(fmt.Sprintf("duplicate filter group %q", g.Key))
		}
		state.order = append(state.order, g.Key)
		state.groups[g.Key] = normalizeGroup(g)
	}
	return state, nil
}

// normalizeGroup keeps only the first selection of a single group
func normalizeGroup(g FilterGroup) FilterGroup {
	opts := g.CloneOptions()
	if g.Type == GroupTypeSingle {
		seen := false
		for i := range opts {
			if opts[i].Selected {
				if seen {
					opts[i].Selected = false
				}
				seen = true
			}
		}
	}
	g.Options = opts
	return g
}

// Len returns the number of groups
func (s FilterState) Len() int {
	return len(s.order)
}

// Group returns the group stored under key
func (s FilterState) Group(key string) (FilterGroup, bool) {
	g, ok := s.groups[key]
	return g, ok
}

// Keys returns group keys in display order
func (s FilterState) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Groups returns the groups in display order
func (s FilterState) Groups() []FilterGroup {
	out := make([]FilterGroup, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.groups[key])
	}
	return out
}

// WithGroup returns a copy of s with g stored under g.Key.
// The group must already exist; new facets only come from the backend.
func (s FilterState) WithGroup(g FilterGroup) FilterState {
	if _, ok := s.groups[g.Key]; !ok {
		return s
	}
	groups := make(map[string]FilterGroup, len(s.groups))
	for k, v := range s.groups {
		groups[k] = v
	}
	groups[g.Key] = g
	return FilterState{order: s.order, groups: groups}
}

// MarshalJSON encodes the state as the ordered group list
func (s FilterState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Groups())
}

// AppliedFilterPayload maps a group key to the selected option id (single)
// or the comma-joined selected ids in option order (multi).
type AppliedFilterPayload map[string]string

// Canonical renders the payload deterministically for identity comparison.
// Keys are sorted and keys and values are query-escaped, so ids containing
// '&' or '=' cannot collide with another payload.
func (p AppliedFilterPayload) Canonical() string {
	values := make(url.Values, len(p))
	for k, v := range p {
		values.Set(k, v)
	}
	return values.Encode()
}

// Clone returns an independent copy
func (p AppliedFilterPayload) Clone() AppliedFilterPayload {
	out := make(AppliedFilterPayload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Values splits a multi value back into ids
func (p AppliedFilterPayload) Values(key string) []string {
	v, ok := p[key]
	if !ok || v == "" {
		return nil
	}
	return strings.Split(v, ",")
}
