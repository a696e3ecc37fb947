// Package pagination implements the opaque cursor tokens used by list
// endpoints. Tokens encode the last-seen row id; callers page with
// `id < cursor` ordered descending, so inserts never shift earlier pages.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

var ErrInvalidToken = errors.New("invalid page token")

type Cursor struct {
	ID string `json:"id,omitempty"`
}

func EncodeCursor(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return &Cursor{}, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return &c, nil
}
