package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRecipeDecode(t *testing.T) {
	t.Run("list instructions", func(t *testing.T) {
		var r Recipe
		body := `{"id": 7, "name": "Soup", "ingredients": ["water", "salt"], "instructions": ["Boil", "Season"], "image_url": "https://img.example.com/soup.jpg"}`
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}

		if r.ID != 7 || r.Name != "Soup" {
			t.Errorf("unexpected identity: %+v", r)
		}
		if !reflect.DeepEqual(r.Instructions, []string{"Boil", "Season"}) {
			t.Errorf("unexpected instructions: %v", r.Instructions)
		}
		if r.ImageURL != "https://img.example.com/soup.jpg" {
			t.Errorf("unexpected image url: %s", r.ImageURL)
		}
	})

	t.Run("instruction block is split into steps", func(t *testing.T) {
		var r Recipe
		body := `{"id": 3, "name": "Tea", "ingredients": [], "instructions": "1. Boil water\n2) Steep\n\n- Serve"}`
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}

		want := []string{"Boil water", "Steep", "Serve"}
		if !reflect.DeepEqual(r.Instructions, want) {
			t.Errorf("Instructions = %v, want %v", r.Instructions, want)
		}
	})

	t.Run("placeholder image values are dropped", func(t *testing.T) {
		for _, placeholder := range []string{`"None"`, `"null"`, `null`} {
			var r Recipe
			body := `{"id": 1, "name": "x", "image_url": ` + placeholder + `}`
			if err := json.Unmarshal([]byte(body), &r); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if r.ImageURL != "" {
				t.Errorf("image_url %s should normalize to empty, got %q", placeholder, r.ImageURL)
			}
		}
	})

	t.Run("numeric metadata is kept as text", func(t *testing.T) {
		var r Recipe
		body := `{"id": 1, "name": "x", "servings": 4, "prep_time": "10 min", "notes": null}`
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if r.Servings != "4" || r.PrepTime != "10 min" || r.Notes != "" {
			t.Errorf("unexpected metadata: servings=%q prep=%q notes=%q", r.Servings, r.PrepTime, r.Notes)
		}
	})

	t.Run("missing id decodes to zero", func(t *testing.T) {
		var r Recipe
		if err := json.Unmarshal([]byte(`{}`), &r); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if r.HasID() {
			t.Error("empty object should not carry an id")
		}
		if err := r.Validate(); err == nil {
			t.Error("expected validation error for missing id")
		}
	})

	t.Run("invalid instructions shape", func(t *testing.T) {
		var r Recipe
		if err := json.Unmarshal([]byte(`{"id": 1, "name": "x", "instructions": 12}`), &r); err == nil {
			t.Error("expected error for numeric instructions")
		}
	})
}

func TestRecipeValidate(t *testing.T) {
	tt := []struct {
		name    string
		recipe  Recipe
		wantErr bool
	}{
		{name: "valid", recipe: Recipe{ID: 1, Name: "Soup"}},
		{name: "no id", recipe: Recipe{Name: "Soup"}, wantErr: true},
		{name: "blank name", recipe: Recipe{ID: 2, Name: "   "}, wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.recipe.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestRecipeClone(t *testing.T) {
	orig := Recipe{ID: 1, Name: "Soup", Ingredients: []string{"water"}, Instructions: []string{"Boil"}}
	c := orig.Clone()
	c.Ingredients[0] = "stock"
	c.Instructions[0] = "Simmer"

	if orig.Ingredients[0] != "water" || orig.Instructions[0] != "Boil" {
		t.Error("Clone() shares slices with the original")
	}
}

func TestInstructionsRoundTrip(t *testing.T) {
	steps := []string{"Chop", "Fry", "Serve"}
	block := JoinInstructions(steps)

	if block != "1. Chop\n2. Fry\n3. Serve" {
		t.Errorf("JoinInstructions() = %q", block)
	}
	if got := SplitInstructions(block); !reflect.DeepEqual(got, steps) {
		t.Errorf("SplitInstructions() = %v, want %v", got, steps)
	}
}

func TestRecipePatch(t *testing.T) {
	name := "New Name"
	empty := " "

	t.Run("Validate", func(t *testing.T) {
		if err := (RecipePatch{}).Validate(); err == nil {
			t.Error("empty patch should not validate")
		}
		if err := (RecipePatch{Name: &empty}).Validate(); err == nil {
			t.Error("blank name should not validate")
		}
		if err := (RecipePatch{Name: &name}).Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Apply", func(t *testing.T) {
		orig := Recipe{ID: 7, Name: "Old", Ingredients: []string{"a"}}
		got := RecipePatch{Name: &name}.Apply(orig)

		if got.Name != "New Name" || got.ID != 7 || !reflect.DeepEqual(got.Ingredients, []string{"a"}) {
			t.Errorf("unexpected result: %+v", got)
		}
		if orig.Name != "Old" {
			t.Error("Apply() mutated the original")
		}
	})

	t.Run("marshal omits unset fields", func(t *testing.T) {
		data, err := json.Marshal(RecipePatch{Name: &name})
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(data) != `{"name":"New Name"}` {
			t.Errorf("unexpected body: %s", data)
		}
	})
}

func TestCredentialsValidate(t *testing.T) {
	if err := (Credentials{Email: "a@b.c", Password: "pw"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Credentials{Email: "", Password: "pw"}).Validate(); err == nil {
		t.Error("expected error for blank email")
	}
	if err := (Credentials{Email: "a@b.c"}).Validate(); err == nil {
		t.Error("expected error for blank password")
	}
}
