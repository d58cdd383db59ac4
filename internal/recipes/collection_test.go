package recipes

import (
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/desertthunder/recipebox/internal/models"
	tu "github.com/desertthunder/recipebox/internal/testing"
)

func TestCollection(t *testing.T) {
	t.Run("Replace Keeps Order", func(t *testing.T) {
		c := NewCollection()
		if err := c.Replace(tu.SampleRecipes(1, 3)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := tu.RecipeIDs(c.Snapshot()); !reflect.DeepEqual(got, []int{1, 2, 3}) {
			t.Errorf("expected [1 2 3], got %v", got)
		}
	})

	t.Run("Replace Is All Or Nothing", func(t *testing.T) {
		c := NewCollection()
		c.Replace(tu.SampleRecipes(1, 2))
		before := c.Snapshot()

		bad := [][]models.Recipe{
			append(tu.SampleRecipes(5, 2), models.Recipe{Name: "no id"}),
			append(tu.SampleRecipes(5, 2), models.Recipe{ID: 9}),
			append(tu.SampleRecipes(5, 2), tu.SampleRecipes(5, 1)...),
		}
		for _, recipes := range bad {
			if err := c.Replace(recipes); err == nil {
				t.Errorf("expected error for %v", tu.RecipeIDs(recipes))
			}
			if !reflect.DeepEqual(c.Snapshot(), before) {
				t.Errorf("expected collection untouched after rejecting %v", tu.RecipeIDs(recipes))
			}
		}
	})

	t.Run("InsertFront", func(t *testing.T) {
		c := NewCollection()
		c.Replace(tu.SampleRecipes(1, 3))

		if !c.InsertFront(models.Recipe{ID: 42, Name: "Soup"}) {
			t.Error("expected new id to be inserted")
		}
		if got := tu.RecipeIDs(c.Snapshot()); !reflect.DeepEqual(got, []int{42, 1, 2, 3}) {
			t.Errorf("expected 42 at front, got %v", got)
		}

		if c.InsertFront(models.Recipe{ID: 2, Name: "Replaced"}) {
			t.Error("expected existing id to be replaced")
		}
		if got := tu.RecipeIDs(c.Snapshot()); !reflect.DeepEqual(got, []int{42, 1, 2, 3}) {
			t.Errorf("expected order unchanged on replace, got %v", got)
		}
		if r, _ := c.Get(2); r.Name != "Replaced" {
			t.Errorf("expected replaced record, got %q", r.Name)
		}
	})

	t.Run("RemoveByID", func(t *testing.T) {
		c := NewCollection()
		c.Replace(tu.SampleRecipes(1, 3))

		if !c.RemoveByID(2) {
			t.Error("expected removal")
		}
		if c.RemoveByID(2) {
			t.Error("expected second removal to report absent")
		}
		if got := tu.RecipeIDs(c.Snapshot()); !reflect.DeepEqual(got, []int{1, 3}) {
			t.Errorf("expected [1 3], got %v", got)
		}
		if r, ok := c.Get(3); !ok || r.ID != 3 {
			t.Error("expected index rebuilt after removal")
		}
	})

	t.Run("Snapshot Is Deep", func(t *testing.T) {
		c := NewCollection()
		c.Replace(tu.SampleRecipes(1, 1))

		snap := c.Snapshot()
		snap[0].Ingredients[0] = "mutated"
		snap[0].Name = "mutated"

		if r, _ := c.Get(1); r.Name == "mutated" || r.Ingredients[0] == "mutated" {
			t.Error("expected snapshot mutation not to leak")
		}
	})

	t.Run("Ids Stay Unique", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(7, 11))
		c := NewCollection()
		c.Replace(tu.SampleRecipes(1, 5))

		for step := range 2000 {
			id := rng.IntN(12) + 1
			switch rng.IntN(3) {
			case 0:
				c.InsertFront(models.Recipe{ID: id, Name: "inserted"})
			case 1:
				c.ReplaceByID(models.Recipe{ID: id, Name: "updated"})
			case 2:
				c.RemoveByID(id)
			}

			seen := make(map[int]bool)
			for i, r := range c.items {
				if seen[r.ID] {
					t.Fatalf("step %d: duplicate id %d", step, r.ID)
				}
				seen[r.ID] = true
				if c.index[r.ID] != i {
					t.Fatalf("step %d: index for %d is %d, want %d", step, r.ID, c.index[r.ID], i)
				}
			}
			if len(c.index) != len(c.items) {
				t.Fatalf("step %d: index has %d entries for %d items", step, len(c.index), len(c.items))
			}
		}
	})

	t.Run("Reset", func(t *testing.T) {
		c := NewCollection()
		c.Replace(tu.SampleRecipes(1, 3))
		c.Reset()
		if c.Len() != 0 {
			t.Errorf("expected empty collection, got %d", c.Len())
		}
		if _, ok := c.Get(1); ok {
			t.Error("expected index cleared")
		}
	})
}
