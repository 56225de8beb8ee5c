// Package pagination encodes the opaque tokens handed out by relation listings.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	svcErr "github.com/oggyb/presence-gateway/internal/errors"
)

// Cursor marks the last row of a page. Rows are ordered by (updated_at, user_id)
// descending, so the pair is a strict position in the listing.
//
// Scope ties the token to the listing it came from: a friend-list token is
// rejected when replayed against the block list.
type Cursor struct {
	Scope       string `json:"s"`
	UserID      string `json:"u"`
	UpdatedUnix int64  `json:"t"` // millis
}

// IsZero reports whether c points at the first page.
func (c Cursor) IsZero() bool {
	return c.UserID == "" || c.UpdatedUnix <= 0
}

// Encode converts a Cursor into an unpadded URL-safe token.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Decode parses token for the listing named scope.
// Empty token -> zero cursor (first page). Malformed or foreign tokens wrap
// svcErr.ErrInvalidPageToken.
func Decode(token, scope string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: not base64", svcErr.ErrInvalidPageToken)
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: not json", svcErr.ErrInvalidPageToken)
	}
	if c.Scope != scope {
		return Cursor{}, fmt.Errorf("%w: issued for %q", svcErr.ErrInvalidPageToken, c.Scope)
	}
	return c, nil
}
