// internal/models/vintage.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Vintage is a harvest year. NonVintage marks blends without a single year.
type Vintage int

const NonVintage Vintage = 0

const nonVintageLabel = "NV"

func (v Vintage) IsNonVintage() bool {
	return v == NonVintage
}

func (v Vintage) String() string {
	if v.IsNonVintage() {
		return nonVintageLabel
	}
	return strconv.Itoa(int(v))
}

func (v Vintage) MarshalJSON() ([]byte, error) {
	if v.IsNonVintage() {
		return json.Marshal(nonVintageLabel)
	}
	return []byte(strconv.Itoa(int(v))), nil
}

// UnmarshalJSON accepts a year as a number or string, or "NV" /
// "non-vintage" in any case.
func (v *Vintage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseVintage(s)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}

	var year int
	if err := json.Unmarshal(data, &year); err != nil {
		return fmt.Errorf("vintage must be a year or %q: %w", nonVintageLabel, err)
	}
	*v = Vintage(year)
	return nil
}

func ParseVintage(s string) (Vintage, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nv", "non-vintage", "nonvintage":
		return NonVintage, nil
	}

	year, err := strconv.Atoi(s)
	if err != nil {
		return NonVintage, fmt.Errorf("vintage must be a year or %q, got %q", nonVintageLabel, s)
	}
	return Vintage(year), nil
}
