package store

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"omifemcuts/pkg/domain"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor marks the last record of a page in (created_at desc, id desc) order.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorFor returns the cursor positioned after s.
func CursorFor(s domain.Style) Cursor {
	return Cursor{CreatedAt: s.CreatedAt, ID: s.ID}
}

// Before reports whether a record sorts strictly after the cursor,
// i.e. belongs to the next page.
func (c Cursor) Before(createdAt time.Time, id string) bool {
	if createdAt.Before(c.CreatedAt) {
		return true
	}
	return createdAt.Equal(c.CreatedAt) && id < c.ID
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by Encode. An empty token means
// "from the beginning" and yields nil.
func DecodeCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
