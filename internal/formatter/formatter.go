// package formatter renders recipes as plain text, Markdown, CSV and JSON, and writes them to disk
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/recipebox/internal/models"
	"github.com/desertthunder/recipebox/internal/shared"
	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Clean strips any HTML markup from scraped text and collapses surrounding whitespace.
func Clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// RecipeText renders a recipe as plain text.
func RecipeText(r models.Recipe) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s (#%d)\n", Clean(r.Name), r.ID)
	if d := Clean(string(r.Description)); d != "" {
		fmt.Fprintf(&buf, "%s\n", d)
	}
	if meta := metaLine(r); meta != "" {
		fmt.Fprintf(&buf, "%s\n", meta)
	}
	if r.SourceURL != "" {
		fmt.Fprintf(&buf, "Source: %s\n", r.SourceURL)
	}

	buf.WriteString("\nIngredients:\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&buf, "  - %s\n", Clean(ing))
	}

	buf.WriteString("\nInstructions:\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(&buf, "  %d. %s\n", i+1, Clean(step))
	}

	if n := Clean(string(r.Notes)); n != "" {
		fmt.Fprintf(&buf, "\nNotes: %s\n", n)
	}

	return buf.String()
}

// RecipeMarkdown renders a recipe as Markdown with an optional image reference.
func RecipeMarkdown(r models.Recipe, imageFilename string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", Clean(r.Name))

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![%s](%s)\n\n", Clean(r.Name), imageFilename)
	}

	if d := Clean(string(r.Description)); d != "" {
		fmt.Fprintf(&buf, "%s\n\n", d)
	}

	if meta := metaLine(r); meta != "" {
		fmt.Fprintf(&buf, "**%s**\n\n", meta)
	}

	if r.SourceURL != "" {
		fmt.Fprintf(&buf, "**Source**: <%s>\n\n", r.SourceURL)
	}

	buf.WriteString("## Ingredients\n\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&buf, "- %s\n", Clean(ing))
	}

	buf.WriteString("\n## Instructions\n\n")
	buf.WriteString(models.JoinInstructions(cleanAll(r.Instructions)))
	buf.WriteString("\n")

	if n := Clean(string(r.Notes)); n != "" {
		fmt.Fprintf(&buf, "\n## Notes\n\n%s\n", n)
	}

	return buf.Bytes()
}

// RecipeList renders one summary per recipe.
//
// view "list" prints one line per recipe; "grid" packs names into columns across width.
func RecipeList(recipes []models.Recipe, view string, width int) string {
	if len(recipes) == 0 {
		return "No recipes yet.\n"
	}

	if view != "grid" {
		var buf bytes.Buffer
		for _, r := range recipes {
			fmt.Fprintf(&buf, "%5d  %s", r.ID, Clean(r.Name))
			if meta := metaLine(r); meta != "" {
				fmt.Fprintf(&buf, "  (%s)", meta)
			}
			buf.WriteString("\n")
		}
		return buf.String()
	}

	const cell = 28
	if width < cell {
		width = cell
	}
	cols := width / cell

	var buf bytes.Buffer
	for i, r := range recipes {
		label := Truncate(fmt.Sprintf("#%d %s", r.ID, Clean(r.Name)), cell-2)
		if (i+1)%cols == 0 || i == len(recipes)-1 {
			fmt.Fprintf(&buf, "%s\n", label)
		} else {
			fmt.Fprintf(&buf, "%-*s", cell, label)
		}
	}
	return buf.String()
}

// Truncate shortens s to at most n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}

// RecipesCSV converts recipes to CSV with columns: ID, Name, Ingredients, Steps, Prep, Cook, Servings, Source
func RecipesCSV(recipes []models.Recipe) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Ingredients", "Steps", "Prep", "Cook", "Servings", "Source"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range recipes {
		record := []string{
			strconv.Itoa(r.ID),
			Clean(r.Name),
			strings.Join(cleanAll(r.Ingredients), "; "),
			strconv.Itoa(len(r.Instructions)),
			string(r.PrepTime),
			string(r.CookTime),
			string(r.Servings),
			r.SourceURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// RecipeJSON renders a recipe as indented JSON.
func RecipeJSON(r models.Recipe) ([]byte, error) {
	return shared.MarshalJSON(r, true)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteCSVExport writes recipes to path as CSV.
func WriteCSVExport(recipes []models.Recipe, path string) (string, error) {
	data, err := RecipesCSV(recipes)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}
	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Image     string
}

// WriteMarkdownExport writes a recipe to {dir}/README.md.
//
// When the recipe has an image URL the image is downloaded to {dir}/image.jpg; a failed download
// only drops the image.
func WriteMarkdownExport(r models.Recipe, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = Slug(r)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var imageFilename string
	if r.ImageURL != "" {
		if data, err := DownloadImage(r.ImageURL); err == nil {
			imagePath := filepath.Join(outputDir, "image.jpg")
			if err := os.WriteFile(imagePath, data, 0644); err == nil {
				imageFilename = "image.jpg"
				result.Image = imagePath
				result.Files = append(result.Files, imagePath)
			}
		}
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, RecipeMarkdown(r, imageFilename), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteTextExport writes a recipe to path as plain text.
func WriteTextExport(r models.Recipe, path string) (string, error) {
	if path == "" {
		path = Slug(r) + ".txt"
	}
	if err := os.WriteFile(path, []byte(RecipeText(r)), 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}

// WriteJSONExport writes a recipe to path as JSON.
func WriteJSONExport(r models.Recipe, path string) (string, error) {
	if path == "" {
		path = Slug(r) + ".json"
	}
	data, err := RecipeJSON(r)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}

// Slug returns a filesystem-safe name for r: its id followed by a lowercased, dashed name.
func Slug(r models.Recipe) string {
	var b strings.Builder
	dash := false
	for _, c := range strings.ToLower(Clean(r.Name)) {
		switch {
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'):
			b.WriteRune(c)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimRight(b.String(), "-")
	if name == "" {
		return strconv.Itoa(r.ID)
	}
	return fmt.Sprintf("%d-%s", r.ID, name)
}

func metaLine(r models.Recipe) string {
	var parts []string
	if r.PrepTime != "" {
		parts = append(parts, "Prep "+string(r.PrepTime))
	}
	if r.CookTime != "" {
		parts = append(parts, "Cook "+string(r.CookTime))
	}
	if r.Servings != "" {
		parts = append(parts, "Serves "+string(r.Servings))
	}
	return strings.Join(parts, " · ")
}

func cleanAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, Clean(s))
	}
	return out
}
