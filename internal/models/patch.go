package models

import (
	"fmt"
	"strings"
)

// RecipePatch holds the fields of a partial update. Nil fields are left unchanged server-side.
type RecipePatch struct {
	Name         *string   `json:"name,omitempty"`
	Ingredients  *[]string `json:"ingredients,omitempty"`
	Instructions *[]string `json:"instructions,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`
	SourceURL    *string   `json:"source_url,omitempty"`
	Description  *string   `json:"description,omitempty"`
	PrepTime     *string   `json:"prep_time,omitempty"`
	CookTime     *string   `json:"cook_time,omitempty"`
	Servings     *string   `json:"servings,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p RecipePatch) IsEmpty() bool {
	return p.Name == nil && p.Ingredients == nil && p.Instructions == nil &&
		p.ImageURL == nil && p.SourceURL == nil && p.Description == nil &&
		p.PrepTime == nil && p.CookTime == nil && p.Servings == nil && p.Notes == nil
}

// Validate rejects patches that would leave a record without a name, or that change nothing.
func (p RecipePatch) Validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("patch has no fields to update")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("name must not be empty")
	}
	return nil
}

// Apply returns a copy of r with the patch applied locally.
func (p RecipePatch) Apply(r Recipe) Recipe {
	out := r.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Ingredients != nil {
		out.Ingredients = append([]string(nil), (*p.Ingredients)...)
	}
	if p.Instructions != nil {
		out.Instructions = append([]string(nil), (*p.Instructions)...)
	}
	if p.ImageURL != nil {
		out.ImageURL = *p.ImageURL
	}
	if p.SourceURL != nil {
		out.SourceURL = *p.SourceURL
	}
	if p.Description != nil {
		out.Description = Text(*p.Description)
	}
	if p.PrepTime != nil {
		out.PrepTime = Text(*p.PrepTime)
	}
	if p.CookTime != nil {
		out.CookTime = Text(*p.CookTime)
	}
	if p.Servings != nil {
		out.Servings = Text(*p.Servings)
	}
	if p.Notes != nil {
		out.Notes = Text(*p.Notes)
	}
	return out
}

// Credentials are the email and password submitted to login and registration.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate rejects blank credentials before any request is made.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// User is the account profile returned by GET /users/me.
type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}
