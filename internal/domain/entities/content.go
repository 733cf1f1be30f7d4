package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContentItem is one entry of an explore list.
// Only ID matters to list logic; the remaining fields are passed through for display.
type ContentItem struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title,omitempty"`
	Type      string                 `json:"type,omitempty"`
	Author    string                 `json:"author,omitempty"`
	Thumbnail string                 `json:"thumbnail,omitempty"`
	Raw       map[string]interface{} `json:"-"`
}

// UnmarshalJSON keeps the full document in Raw and accepts numeric ids
func (c *ContentItem) UnmarshalJSON(data []byte) error {
	raw := map[string]interface{}{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	item := ContentItem{Raw: raw}
	switch id := raw["id"].(type) {
	case string:
		item.ID = id
	case json.Number:
		item.ID = id.String()
	case nil:
	default:
		return fmt.Errorf("content item id has unsupported type %T", id)
	}
	item.Title = stringField(raw, "title")
	item.Type = stringField(raw, "type")
	item.Author = stringField(raw, "author")
	item.Thumbnail = stringField(raw, "thumbnail")

	*c = item
	return nil
}

func stringField(raw map[string]interface{}, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

// Pagination is the envelope returned with every page
type Pagination struct {
	Page    int  `json:"page"`
	HasNext bool `json:"has_next"`
}

// Page is one response of the content list endpoint
type Page struct {
	Items      []ContentItem `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// PageRequest is everything that identifies one fetch
type PageRequest struct {
	Filters  AppliedFilterPayload
	Query    string
	Page     int
	PageSize int
}
