package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/recipebox/internal/formatter"
	"github.com/desertthunder/recipebox/internal/models"
)

var _ list.Item = recipeItem{}

// gridCellWidth is the outer width of one grid card, borders included.
const gridCellWidth = 30

// recipeItem wraps [models.Recipe] to implement [list.Item].
type recipeItem struct {
	recipe models.Recipe
}

func (i recipeItem) FilterValue() string { return i.recipe.Name }
func (i recipeItem) Title() string       { return formatter.Clean(i.recipe.Name) }
func (i recipeItem) Description() string {
	desc := fmt.Sprintf("#%d • %d ingredients • %d steps", i.recipe.ID, len(i.recipe.Ingredients), len(i.recipe.Instructions))
	if t := formatter.Clean(string(i.recipe.CookTime)); t != "" {
		desc = fmt.Sprintf("%s • %s", desc, t)
	}
	return desc
}

func recipeItems(recipes []models.Recipe) []list.Item {
	items := make([]list.Item, len(recipes))
	for i, r := range recipes {
		items[i] = recipeItem{recipe: r}
	}
	return items
}

// gridColumns returns how many cards fit across width.
func gridColumns(width int) int {
	if cols := width / gridCellWidth; cols > 1 {
		return cols
	}
	return 1
}

// renderGrid lays recipes out as cards, highlighting the one at selected.
func renderGrid(recipes []models.Recipe, selected, width int, p *Palette) string {
	if len(recipes) == 0 {
		return p.help.Render("No recipes yet. Press a to add one by URL.")
	}

	cols := gridColumns(width)
	inner := gridCellWidth - 4

	var rows []string
	for start := 0; start < len(recipes); start += cols {
		end := min(start+cols, len(recipes))

		cells := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			r := recipes[i]
			body := strings.Join([]string{
				formatter.Truncate(formatter.Clean(r.Name), inner),
				formatter.Truncate(fmt.Sprintf("#%d • %d steps", r.ID, len(r.Instructions)), inner),
			}, "\n")

			style := p.cell
			if i == selected {
				style = p.selected
			}
			cells = append(cells, style.Width(inner).Render(body))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
