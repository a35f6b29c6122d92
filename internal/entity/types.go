package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// RoleList stores an account's role set as a JSON column.
type RoleList []string

// Value implements driver.Valuer.
func (r RoleList) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(r))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (r *RoleList) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*r = RoleList{}
			return nil
		}
		return json.Unmarshal(v, (*[]string)(r))
	case string:
		if v == "" {
			*r = RoleList{}
			return nil
		}
		return json.Unmarshal([]byte(v), (*[]string)(r))
	default:
		return fmt.Errorf("unsupported type for RoleList: %T", value)
	}
}

// Contains reports whether the set holds the given role.
func (r RoleList) Contains(role string) bool {
	for _, item := range r {
		if item == role {
			return true
		}
	}
	return false
}

// ToSlice returns a copy of the underlying slice.
func (r RoleList) ToSlice() []string {
	if len(r) == 0 {
		return []string{}
	}
	out := make([]string, len(r))
	copy(out, r)
	return out
}
