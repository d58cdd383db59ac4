package recipes

import (
	"fmt"

	"github.com/desertthunder/recipebox/internal/models"
)

// Collection is an ordered set of recipes keyed by id.
//
// It is not safe for concurrent use; [Repository] guards it.
type Collection struct {
	items []models.Recipe
	index map[int]int
}

// NewCollection creates an empty [Collection].
func NewCollection() *Collection {
	return &Collection{index: make(map[int]int)}
}

// Replace swaps in recipes wholesale, keeping their order.
//
// The collection is unchanged when any record is invalid or ids repeat.
func (c *Collection) Replace(recipes []models.Recipe) error {
	items := make([]models.Recipe, 0, len(recipes))
	index := make(map[int]int, len(recipes))

	for i, r := range recipes {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := index[r.ID]; dup {
			return fmt.Errorf("record %d: duplicate id %d", i, r.ID)
		}
		index[r.ID] = len(items)
		items = append(items, r.Clone())
	}

	c.items, c.index = items, index
	return nil
}

// InsertFront puts r at the front. An existing record with the same id is replaced in place.
//
// Reports whether r was inserted rather than replaced.
func (c *Collection) InsertFront(r models.Recipe) bool {
	if c.ReplaceByID(r) {
		return false
	}

	c.items = append([]models.Recipe{r.Clone()}, c.items...)
	c.reindex()
	return true
}

// ReplaceByID overwrites the record with r.ID, keeping its position.
func (c *Collection) ReplaceByID(r models.Recipe) bool {
	i, ok := c.index[r.ID]
	if !ok {
		return false
	}
	c.items[i] = r.Clone()
	return true
}

// RemoveByID drops the record with id. Reports whether one was present.
func (c *Collection) RemoveByID(id int) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}

	c.items = append(c.items[:i], c.items[i+1:]...)
	c.reindex()
	return true
}

// Get returns a copy of the record with id.
func (c *Collection) Get(id int) (models.Recipe, bool) {
	i, ok := c.index[id]
	if !ok {
		return models.Recipe{}, false
	}
	return c.items[i].Clone(), true
}

// Len returns the number of records.
func (c *Collection) Len() int {
	return len(c.items)
}

// Snapshot returns a deep copy of the records in order.
func (c *Collection) Snapshot() []models.Recipe {
	out := make([]models.Recipe, len(c.items))
	for i, r := range c.items {
		out[i] = r.Clone()
	}
	return out
}

// Reset empties the collection.
func (c *Collection) Reset() {
	c.items = nil
	c.index = make(map[int]int)
}

func (c *Collection) reindex() {
	c.index = make(map[int]int, len(c.items))
	for i, r := range c.items {
		c.index[r.ID] = i
	}
}
