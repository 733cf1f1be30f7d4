package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_Decode(t *testing.T) {
	body := `{
		"items": [
			{"id": 17, "title": "Onboarding", "type": "video", "duration": 120},
			{"id": "c-9", "title": "Safety basics", "type": "course"}
		],
		"pagination": {"page": 2, "has_next": false}
	}`

	var page Page
	require.NoError(t, json.Unmarshal([]byte(body), &page))

	require.Len(t, page.Items, 2)
	assert.Equal(t, "17", page.Items[0].ID)
	assert.Equal(t, "video", page.Items[0].Type)
	assert.Equal(t, json.Number("120"), page.Items[0].Raw["duration"])
	assert.Equal(t, "c-9", page.Items[1].ID)
	assert.Equal(t, Pagination{Page: 2, HasNext: false}, page.Pagination)
}

func TestContentItem_RejectsObjectID(t *testing.T) {
	var item ContentItem
	err := json.Unmarshal([]byte(`{"id": {"oid": 1}}`), &item)
	assert.Error(t, err)
}

func TestListEvent_ZeroResult(t *testing.T) {
	assert.True(t, (&ListEvent{ResultCount: 0, HasNext: false}).ZeroResult())
	assert.False(t, (&ListEvent{ResultCount: 0, HasNext: true}).ZeroResult())
}
