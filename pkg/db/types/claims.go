package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ClaimSet is the mutable custom-claim map stored on an account record and
// embedded into session tokens.
type ClaimSet map[string]string

// Scan implements sql.Scanner for JSON columns.
func (c *ClaimSet) Scan(src any) error {
	if src == nil {
		*c = ClaimSet{}
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("ClaimSet: unsupported Scan type %T", src)
	}

	if len(raw) == 0 {
		*c = ClaimSet{}
		return nil
	}
	return json.Unmarshal(raw, c)
}

// Value implements driver.Valuer for JSON columns.
func (c ClaimSet) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Clone returns a copy so callers can mutate claims without aliasing.
func (c ClaimSet) Clone() ClaimSet {
	out := make(ClaimSet, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
