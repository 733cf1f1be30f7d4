// Package filters implements facet selection for explore lists: pure
// transitions over entities.FilterState and the payload sent to the backend.
package filters

import (
	"fmt"
	"strings"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
	apperrors "github.com/zatekoja/contentexplore/pkg/errors"
)

// SelectSingle selects optionID in a single-type group and clears its siblings.
// Single groups apply on select, so callers commit the result immediately.
func SelectSingle(state entities.FilterState, groupKey string, optionID entities.OptionID) (entities.FilterState, error) {
	g, idx, err := lookup(state, groupKey, optionID)
	if err != nil {
		return state, err
	}
	if g.Type != entities.GroupTypeSingle {
		return state, apperrors.NewValidationError(fmt.Sprintf("filter group %q is not single-select", groupKey))
	}

	opts := g.CloneOptions()
	for i := range opts {
		opts[i].Selected = i == idx
	}
	g.Options = opts
	return state.WithGroup(g), nil
}

// ToggleMulti flips one option of a multi-type group. Nothing else changes and
// nothing is applied; the caller stages toggles until an explicit apply.
func ToggleMulti(state entities.FilterState, groupKey string, optionID entities.OptionID) (entities.FilterState, error) {
	g, idx, err := lookup(state, groupKey, optionID)
	if err != nil {
		return state, err
	}
	if g.Type != entities.GroupTypeMulti {
		return state, apperrors.NewValidationError(fmt.Sprintf("filter group %q is not multi-select", groupKey))
	}

	opts := g.CloneOptions()
	opts[idx].Selected = !opts[idx].Selected
	g.Options = opts
	return state.WithGroup(g), nil
}

// ClearGroup unselects every option of one group, whatever its type
func ClearGroup(state entities.FilterState, groupKey string) (entities.FilterState, error) {
	g, ok := state.Group(groupKey)
	if !ok {
		return state, unknownGroup(groupKey)
	}

	opts := g.CloneOptions()
	for i := range opts {
		opts[i].Selected = false
	}
	g.Options = opts
	return state.WithGroup(g), nil
}

// DerivePayload maps a state to the filter parameters of a fetch.
// Groups without a selection contribute nothing.
func DerivePayload(state entities.FilterState) entities.AppliedFilterPayload {
	payload := entities.AppliedFilterPayload{}
	for _, g := range state.Groups() {
		ids := g.SelectedIDs()
		if len(ids) == 0 {
			continue
		}
		switch g.Type {
		case entities.GroupTypeSingle:
			payload[g.Key] = string(ids[0])
		case entities.GroupTypeMulti:
			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = string(id)
			}
			payload[g.Key] = strings.Join(parts, ",")
		}
	}
	return payload
}

// IsFilterActive reports whether key has a non-empty value in payload.
// An id of "0" is a real selection and counts as active.
func IsFilterActive(payload entities.AppliedFilterPayload, key string) bool {
	if payload == nil {
		return false
	}
	v, ok := payload[key]
	return ok && v != ""
}

// ActiveCount returns how many groups have a selection
func ActiveCount(payload entities.AppliedFilterPayload) int {
	n := 0
	for key := range payload {
		if IsFilterActive(payload, key) {
			n++
		}
	}
	return n
}

func lookup(state entities.FilterState, groupKey string, optionID entities.OptionID) (entities.FilterGroup, int, error) {
	g, ok := state.Group(groupKey)
	if !ok {
		return g, -1, unknownGroup(groupKey)
	}
	idx := g.Option(optionID)
	if idx < 0 {
		return g, -1, apperrors.NewValidationError(fmt.Sprintf("filter group %q has no option %q", groupKey, optionID))
	}
	return g, idx, nil
}

func unknownGroup(key string) error {
	return apperrors.NewValidationError(fmt.Sprintf("unknown filter group %q", key))
}
