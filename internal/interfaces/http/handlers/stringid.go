package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StringID accepts either a JSON string or a JSON number, so product_id may
// be sent as a slug or as a numeric id.
type StringID string

func (s *StringID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = StringID(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product_id must be a string or a number: %w", err)
	}
	*s = StringID(n.String())
	return nil
}
