package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Text is a free-form display field that the server may send as a string or a number.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("text field must be a string or number: %w", err)
	}
	*t = Text(n.String())
	return nil
}

// Recipe is a recipe record as returned by the recipe service.
type Recipe struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	ImageURL     string   `json:"image_url,omitempty"`
	SourceURL    string   `json:"source_url,omitempty"`
	Description  Text     `json:"description,omitempty"`
	PrepTime     Text     `json:"prep_time,omitempty"`
	CookTime     Text     `json:"cook_time,omitempty"`
	Servings     Text     `json:"servings,omitempty"`
	Notes        Text     `json:"notes,omitempty"`
}

// wireRecipe mirrors [Recipe] with the fields whose shape varies left raw.
type wireRecipe struct {
	ID           *int            `json:"id"`
	Name         string          `json:"name"`
	Ingredients  []string        `json:"ingredients"`
	Instructions json.RawMessage `json:"instructions"`
	ImageURL     *string         `json:"image_url"`
	SourceURL    *string         `json:"source_url"`
	Description  Text            `json:"description"`
	PrepTime     Text            `json:"prep_time"`
	CookTime     Text            `json:"cook_time"`
	Servings     Text            `json:"servings"`
	Notes        Text            `json:"notes"`
}

// UnmarshalJSON decodes a recipe, normalizing instruction blocks and placeholder image values.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var w wireRecipe
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	instructions, err := decodeInstructions(w.Instructions)
	if err != nil {
		return err
	}

	*r = Recipe{
		Name:         w.Name,
		Ingredients:  w.Ingredients,
		Instructions: instructions,
		ImageURL:     normalizeRef(w.ImageURL),
		SourceURL:    normalizeRef(w.SourceURL),
		Description:  w.Description,
		PrepTime:     w.PrepTime,
		CookTime:     w.CookTime,
		Servings:     w.Servings,
		Notes:        w.Notes,
	}
	if w.ID != nil {
		r.ID = *w.ID
	}

	return nil
}

// HasID reports whether the record carries a server-issued id.
func (r Recipe) HasID() bool {
	return r.ID > 0
}

// Validate checks the invariants a record must hold before it enters a collection.
func (r Recipe) Validate() error {
	if !r.HasID() {
		return fmt.Errorf("recipe is missing an id")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("recipe %d has an empty name", r.ID)
	}
	return nil
}

// Clone returns a deep copy of r.
func (r Recipe) Clone() Recipe {
	c := r
	c.Ingredients = append([]string(nil), r.Ingredients...)
	c.Instructions = append([]string(nil), r.Instructions...)
	return c
}

// normalizeRef drops the placeholder strings some server versions emit for missing links.
func normalizeRef(ref *string) string {
	if ref == nil {
		return ""
	}
	s := strings.TrimSpace(*ref)
	switch strings.ToLower(s) {
	case "none", "null":
		return ""
	}
	return s
}

func decodeInstructions(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var block string
		if err := json.Unmarshal(raw, &block); err != nil {
			return nil, err
		}
		return SplitInstructions(block), nil
	}

	var steps []string
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil, fmt.Errorf("instructions must be a list or a text block: %w", err)
	}
	return steps, nil
}

var stepPrefix = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+`)

// SplitInstructions turns a single instructions block into ordered steps.
//
// Each non-blank line becomes a step; list markers such as "1." or "-" are removed.
func SplitInstructions(block string) []string {
	var steps []string
	for _, line := range strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(stepPrefix.ReplaceAllString(line, ""))
		if line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}

// JoinInstructions renders steps as a numbered markdown block.
func JoinInstructions(steps []string) string {
	var b strings.Builder
	for i, step := range steps {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(step)
	}
	return b.String()
}
