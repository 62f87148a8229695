package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexUint64 is a row version that clients may send as a JSON number or as a
// decimal string. Responses carry versions as strings so they survive clients
// without 64 bit integers.
type FlexUint64 uint64

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexUint64) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return fmt.Errorf("version: expected a number or numeric string")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("version: %w", err)
		}
		raw = strings.TrimSpace(s)
	}

	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("version: %q is not a non-negative integer", raw)
	}
	*f = FlexUint64(n)
	return nil
}

// MarshalJSON writes the version as a string.
func (f FlexUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f FlexUint64) String() string {
	return strconv.FormatUint(uint64(f), 10)
}

// Uint64 converts FlexUint64 back to uint64.
func (f FlexUint64) Uint64() uint64 {
	return uint64(f)
}
