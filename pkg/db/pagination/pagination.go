// Package pagination implements opaque cursor tokens for list endpoints.
package pagination

import (
	"encoding/base64"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
)

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=50" validate:"gte=1,lte=250"` // Min 1, Max 250
}

// Cursor marks the last row of a page. Listings order by id descending, so
// the next page starts strictly below it.
type Cursor struct {
	ID snowflake.ID `json:"id"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}
	return &cursor, nil
}

// BuildPage trims an overfetched result down to size and points the next
// token at the last row kept. Callers fetch size+1 rows to learn whether a
// further page exists.
func BuildPage[T any](data []T, size int, cursorOf func(T) Cursor) ([]T, PageInfo, error) {
	if len(data) == 0 {
		return data, PageInfo{}, nil
	}

	hasMore := false
	if size > 0 && len(data) > size {
		hasMore = true
		data = data[:size]
	}

	token, err := EncodeCursor(cursorOf(data[len(data)-1]))
	if err != nil {
		return nil, PageInfo{}, err
	}
	return data, PageInfo{NextPageToken: token, HasMore: hasMore}, nil
}
