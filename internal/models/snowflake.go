package models

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
)

// Snowflake is a 64-bit entity ID. The API transports it as a decimal string.
type Snowflake uint64

// ParseSnowflake parses a decimal ID string.
func ParseSnowflake(s string) (Snowflake, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errorwrapper.NewValidationError("snowflake", s, "must be a decimal 64-bit ID")
	}
	return Snowflake(id), nil
}

// String returns the decimal form of the ID
func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// IsZero reports whether the ID is unset
func (s Snowflake) IsZero() bool {
	return s == 0
}

// MarshalJSON encodes the ID as a JSON string
func (s Snowflake) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// UnmarshalJSON accepts both string and numeric IDs
func (s *Snowflake) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	if raw == "" {
		*s = 0
		return nil
	}
	id, err := ParseSnowflake(raw)
	if err != nil {
		return err
	}
	*s = id
	return nil
}
