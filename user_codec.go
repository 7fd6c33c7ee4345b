package goAuthClient

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errUserMissingID = errors.New("stored user has no id")

func encodeUser(u *User) (string, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("encode user: %w", err)
	}
	return string(data), nil
}

// decodeUser accepts a JSON object with a non-empty id. Anything else is
// treated as a corrupt entry.
func decodeUser(raw string) (*User, error) {
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if u.ID == "" {
		return nil, errUserMissingID
	}
	return &u, nil
}
