package formatter

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/recipebox/internal/models"
	th "github.com/desertthunder/recipebox/internal/testing"
)

func sampleRecipe() models.Recipe {
	return models.Recipe{
		ID:           7,
		Name:         "Tomato <b>Soup</b>",
		Ingredients:  []string{"4 tomatoes", "Salt &amp; pepper"},
		Instructions: []string{"Chop the tomatoes.", "Simmer for <i>20</i> minutes."},
		SourceURL:    "https://example.com/tomato-soup",
		Description:  "A simple soup.",
		PrepTime:     "10 min",
		CookTime:     "20 min",
		Servings:     "4",
		Notes:        "Freezes well.",
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"<b>bold</b> text", "bold text"},
		{"Salt &amp; pepper", "Salt & pepper"},
		{"  padded  ", "padded"},
		{`<a href="javascript:alert(1)">link</a>`, "link"},
	}

	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderers(t *testing.T) {
	r := sampleRecipe()

	t.Run("RecipeText", func(t *testing.T) {
		out := RecipeText(r)

		for _, want := range []string{
			"Tomato Soup (#7)",
			"A simple soup.",
			"Prep 10 min · Cook 20 min · Serves 4",
			"Source: https://example.com/tomato-soup",
			"  - Salt & pepper",
			"  2. Simmer for 20 minutes.",
			"Notes: Freezes well.",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("text output missing %q, got:\n%s", want, out)
			}
		}
		if strings.Contains(out, "<b>") {
			t.Error("expected markup stripped")
		}
	})

	t.Run("RecipeText Minimal", func(t *testing.T) {
		out := RecipeText(models.Recipe{ID: 1, Name: "Toast"})
		if strings.Contains(out, "Source:") || strings.Contains(out, "Notes:") {
			t.Errorf("expected optional sections omitted, got:\n%s", out)
		}
	})

	t.Run("RecipeMarkdown", func(t *testing.T) {
		out := string(RecipeMarkdown(r, "image.jpg"))

		for _, want := range []string{
			"# Tomato Soup\n",
			"![Tomato Soup](image.jpg)",
			"## Ingredients\n\n- 4 tomatoes\n- Salt & pepper\n",
			"## Instructions\n\n1. Chop the tomatoes.\n2. Simmer for 20 minutes.\n",
			"## Notes\n\nFreezes well.",
			"**Source**: <https://example.com/tomato-soup>",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("markdown missing %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("RecipeMarkdown Without Image", func(t *testing.T) {
		if out := string(RecipeMarkdown(r, "")); strings.Contains(out, "![") {
			t.Error("expected no image line")
		}
	})

	t.Run("RecipesCSV", func(t *testing.T) {
		data, err := RecipesCSV([]models.Recipe{r})
		if err != nil {
			t.Fatalf("RecipesCSV failed: %v", err)
		}
		out := string(data)

		if !strings.Contains(out, "ID,Name,Ingredients,Steps,Prep,Cook,Servings,Source") {
			t.Errorf("CSV missing headers, got: %s", out)
		}
		if !strings.Contains(out, "7,Tomato Soup,4 tomatoes; Salt & pepper,2,10 min,20 min,4,https://example.com/tomato-soup") {
			t.Errorf("CSV missing record, got: %s", out)
		}
	})

	t.Run("RecipeJSON", func(t *testing.T) {
		data, err := RecipeJSON(r)
		if err != nil {
			t.Fatalf("RecipeJSON failed: %v", err)
		}
		if !strings.Contains(string(data), `"id": 7`) {
			t.Errorf("expected indented JSON, got %s", data)
		}
	})
}

func TestRecipeList(t *testing.T) {
	recipes := []models.Recipe{
		{ID: 1, Name: "Pancakes", PrepTime: "5 min"},
		{ID: 2, Name: "Waffles"},
		{ID: 3, Name: "A very long recipe name that will not fit in a grid cell"},
	}

	t.Run("Empty", func(t *testing.T) {
		if got := RecipeList(nil, "list", 80); got != "No recipes yet.\n" {
			t.Errorf("unexpected empty output %q", got)
		}
	})

	t.Run("List", func(t *testing.T) {
		out := RecipeList(recipes, "list", 80)
		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if !strings.Contains(lines[0], "Pancakes") || !strings.Contains(lines[0], "(Prep 5 min)") {
			t.Errorf("unexpected first line %q", lines[0])
		}
	})

	t.Run("Grid", func(t *testing.T) {
		out := RecipeList(recipes, "grid", 60)
		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 rows for 2 columns, got %d: %q", len(lines), out)
		}
		if !strings.Contains(lines[0], "#1 Pancakes") || !strings.Contains(lines[0], "#2 Waffles") {
			t.Errorf("expected first row to hold two cells, got %q", lines[0])
		}
		if !strings.HasSuffix(lines[1], "…") {
			t.Errorf("expected long name truncated, got %q", lines[1])
		}
	})

	t.Run("Grid Narrow", func(t *testing.T) {
		out := RecipeList(recipes, "grid", 5)
		if n := strings.Count(out, "\n"); n != 3 {
			t.Errorf("expected one cell per row, got %d rows", n)
		}
	})
}

func TestSlug(t *testing.T) {
	tests := []struct {
		r    models.Recipe
		want string
	}{
		{models.Recipe{ID: 1, Name: "Tomato Soup"}, "1-tomato-soup"},
		{models.Recipe{ID: 2, Name: "  Mac & Cheese!! "}, "2-mac-cheese"},
		{models.Recipe{ID: 3, Name: "!!!"}, "3"},
	}
	for _, tt := range tests {
		if got := Slug(tt.r); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.r.Name, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged, got %q", got)
	}
	if got := Truncate("abcdef", 4); got != "abc…" {
		t.Errorf("expected abc…, got %q", got)
	}
	if got := Truncate("abcdef", 1); got != "a" {
		t.Errorf("expected a, got %q", got)
	}
}

func TestWriters(t *testing.T) {
	r := sampleRecipe()

	t.Run("WriteMarkdownExport With Image", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("fake-jpeg"))
		}))
		defer server.Close()

		withImage := r
		withImage.ImageURL = server.URL + "/soup.jpg"
		dir := filepath.Join(t.TempDir(), "soup")

		res, err := WriteMarkdownExport(withImage, dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if len(res.Files) != 2 {
			t.Errorf("expected image and README, got %v", res.Files)
		}
		th.AssertFileExists(t, filepath.Join(dir, "image.jpg"))
		if md := th.MustReadFile(t, filepath.Join(dir, "README.md")); !strings.Contains(md, "![Tomato Soup](image.jpg)") {
			t.Errorf("expected image reference, got:\n%s", md)
		}
	})

	t.Run("WriteMarkdownExport Image Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		withImage := r
		withImage.ImageURL = server.URL + "/missing.jpg"
		dir := filepath.Join(t.TempDir(), "soup")

		res, err := WriteMarkdownExport(withImage, dir)
		if err != nil {
			t.Fatalf("expected image failure to be tolerated, got %v", err)
		}
		if res.Image != "" || len(res.Files) != 1 {
			t.Errorf("expected README only, got %+v", res)
		}
	})

	t.Run("WriteTextExport And JSON", func(t *testing.T) {
		dir := t.TempDir()

		txt, err := WriteTextExport(r, filepath.Join(dir, "r.txt"))
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if !strings.Contains(th.MustReadFile(t, txt), "Tomato Soup") {
			t.Error("expected text content")
		}

		js, err := WriteJSONExport(r, filepath.Join(dir, "r.json"))
		if err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}
		th.AssertFileExists(t, js)
	})

	t.Run("WriteCSVExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "recipes.csv")
		if _, err := WriteCSVExport([]models.Recipe{r}, path); err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("Write Failures", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope", "deeper", "file")
		if _, err := WriteTextExport(r, missing); err == nil {
			t.Error("expected text write error")
		}
		if _, err := WriteJSONExport(r, missing); err == nil {
			t.Error("expected JSON write error")
		}
		if _, err := WriteCSVExport(nil, missing); err == nil {
			t.Error("expected CSV write error")
		}
	})

	t.Run("DownloadImage Empty URL", func(t *testing.T) {
		if _, err := DownloadImage(""); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("Default Paths", func(t *testing.T) {
		t.Chdir(t.TempDir())

		path, err := WriteTextExport(models.Recipe{ID: 4, Name: "Toast"}, "")
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if path != "4-toast.txt" {
			t.Errorf("expected default slug path, got %s", path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected file on disk: %v", err)
		}
	})
}
