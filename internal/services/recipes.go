package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/recipebox/internal/models"
	"github.com/desertthunder/recipebox/internal/shared"
)

// RecipeAPI wraps the bearer-authenticated recipe endpoints.
//
// Methods return records exactly as decoded; shape validation against collection invariants
// is left to the caller.
type RecipeAPI struct {
	client *Client
}

// NewRecipeAPI creates a [RecipeAPI] that issues requests through client.
func NewRecipeAPI(client *Client) *RecipeAPI {
	return &RecipeAPI{client: client}
}

// List fetches every recipe owned by the token holder, in server order.
func (a *RecipeAPI) List(ctx context.Context, token string) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := a.client.Do(ctx, http.MethodGet, "/getallrecipes", token, nil, &recipes); err != nil {
		return nil, err
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	return recipes, nil
}

// Obtain asks the server to extract a recipe from the page at url.
//
// This call can take a long time; the server scrapes and parses the page before responding.
func (a *RecipeAPI) Obtain(ctx context.Context, token, url string) (*models.Recipe, error) {
	body := map[string]string{"url": url}

	var recipe models.Recipe
	if err := a.client.Do(ctx, http.MethodPost, "/obtainrecipe", token, body, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Update sends a partial update and returns the server's canonical record.
func (a *RecipeAPI) Update(ctx context.Context, token string, id int, patch models.RecipePatch) (*models.Recipe, error) {
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var recipe models.Recipe
	path := fmt.Sprintf("/recipes/%d", id)
	if err := a.client.Do(ctx, http.MethodPut, path, token, patch, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Delete removes the recipe with id server-side and returns the optional confirmation message.
//
// Any 2xx is a confirmation; a body without a readable message yields "".
func (a *RecipeAPI) Delete(ctx context.Context, token string, id int) (string, error) {
	data, err := a.client.send(ctx, http.MethodDelete, fmt.Sprintf("/deleterecipe/%d", id), token, nil)
	if err != nil {
		return "", err
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return "", nil
	}
	return strings.TrimSpace(body.Message), nil
}
