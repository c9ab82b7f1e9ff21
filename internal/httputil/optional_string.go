package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString distinguishes an absent JSON field (keep), an explicit
// null (clear) and a string value (set) in update bodies such as a
// project's description.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON only runs for fields present in the body
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// IsNull reports whether the field was sent as an explicit null
func (o OptionalString) IsNull() bool {
	return o.Present && o.Value == nil
}
