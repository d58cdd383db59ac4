package testing

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/recipebox/internal/models"
)

// Middleware wraps an [http.Handler] with additional behavior.
type Middleware func(http.Handler) http.Handler

// Backend is an in-process stand-in for the recipe service.
//
// It serves the same routes and error envelopes as the real service. Individual routes can be
// replaced with [Backend.Override] to inject failures or slow responses.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	users     map[string]string
	tokens    map[string]string
	recipes   map[string][]models.Recipe
	overrides map[string]http.HandlerFunc
	hits      map[string]int
	nextID    int

	mux         *http.ServeMux
	middlewares []Middleware
}

// NewBackend starts a [Backend] that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		users:     make(map[string]string),
		tokens:    make(map[string]string),
		recipes:   make(map[string][]models.Recipe),
		overrides: make(map[string]http.HandlerFunc),
		hits:      make(map[string]int),
		nextID:    100,
		mux:       http.NewServeMux(),
	}
	b.Use(b.count, b.override)

	b.handle("POST /token", http.HandlerFunc(b.token))
	b.handle("POST /users/register", http.HandlerFunc(b.register))
	b.handle("GET /health", http.HandlerFunc(b.health))
	b.handle("GET /users/me", b.authenticated(b.me))
	b.handle("GET /getallrecipes", b.authenticated(b.list))
	b.handle("POST /obtainrecipe", b.authenticated(b.obtain))
	b.handle("PUT /recipes/{id}", b.authenticated(b.update))
	b.handle("DELETE /deleterecipe/{id}", b.authenticated(b.remove))

	b.Server = httptest.NewServer(b.mux)
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the base URL of the running server.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Use adds [Middleware] applied to every route registered afterwards, in the order added.
func (b *Backend) Use(middleware ...Middleware) {
	b.middlewares = append(b.middlewares, middleware...)
}

func (b *Backend) handle(pattern string, handler http.Handler) {
	wrapped := handler
	for i := len(b.middlewares) - 1; i >= 0; i-- {
		wrapped = b.middlewares[i](wrapped)
	}
	b.mux.Handle(pattern, wrapped)
}

// AddUser registers an account and returns a token already issued for it.
func (b *Backend) AddUser(email, password string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.users[email] = password
	return b.issue(email)
}

// Seed appends recipes to the collection owned by email, keeping their ids.
func (b *Backend) Seed(email string, recipes ...models.Recipe) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range recipes {
		b.recipes[email] = append(b.recipes[email], r.Clone())
		if r.ID >= b.nextID {
			b.nextID = r.ID + 1
		}
	}
}

// Recipes returns the server-side collection owned by email.
func (b *Backend) Recipes(email string) []models.Recipe {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.Recipe, 0, len(b.recipes[email]))
	for _, r := range b.recipes[email] {
		out = append(out, r.Clone())
	}
	return out
}

// Revoke invalidates token so that later calls carrying it receive 401.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

// Override replaces the handler for method and path. Path is matched exactly.
func (b *Backend) Override(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[method+" "+path] = h
}

// Hits returns how many requests reached method and path.
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.Method+" "+r.URL.Path]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) override(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		h, ok := b.overrides[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if ok {
			h(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticated rejects requests without a known bearer token and passes the owner's email on.
func (b *Backend) authenticated(next func(w http.ResponseWriter, r *http.Request, email string)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		b.mu.Lock()
		email, ok := b.tokens[token]
		b.mu.Unlock()

		if !ok {
			WriteDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, email)
	})
}

func (b *Backend) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteDetail(w, http.StatusBadRequest, "invalid form")
		return
	}

	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	b.mu.Lock()
	defer b.mu.Unlock()

	if stored, ok := b.users[email]; !ok || stored != password {
		WriteDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"access_token": b.issue(email), "token_type": "bearer"})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		WriteValidation(w, "Input should be a valid dictionary")
		return
	}
	if !strings.Contains(creds.Email, "@") {
		WriteValidation(w, "value is not a valid email address")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.users[creds.Email]; ok {
		WriteDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	b.users[creds.Email] = creds.Password

	WriteJSON(w, http.StatusCreated, models.User{ID: len(b.users), Email: creds.Email, IsActive: true})
}

func (b *Backend) health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (b *Backend) me(w http.ResponseWriter, _ *http.Request, email string) {
	WriteJSON(w, http.StatusOK, models.User{ID: 1, Email: email, IsActive: true})
}

func (b *Backend) list(w http.ResponseWriter, _ *http.Request, email string) {
	WriteJSON(w, http.StatusOK, b.Recipes(email))
}

func (b *Backend) obtain(w http.ResponseWriter, r *http.Request, email string) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		WriteValidation(w, "Field required")
		return
	}

	u, err := url.Parse(body.URL)
	if err != nil || u.Host == "" {
		WriteValidation(w, "Input should be a valid URL")
		return
	}

	name := strings.ReplaceAll(strings.Trim(path.Base(u.Path), "/"), "-", " ")
	if name == "" || name == "." {
		name = u.Host
	}

	b.mu.Lock()
	recipe := models.Recipe{
		ID:           b.nextID,
		Name:         name,
		Ingredients:  []string{"1 cup water"},
		Instructions: []string{"Boil the water."},
		SourceURL:    body.URL,
	}
	b.nextID++
	b.recipes[email] = append(b.recipes[email], recipe)
	b.mu.Unlock()

	WriteJSON(w, http.StatusOK, recipe)
}

func (b *Backend) update(w http.ResponseWriter, r *http.Request, email string) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		WriteValidation(w, "Input should be a valid integer")
		return
	}

	var patch models.RecipePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		WriteValidation(w, "Input should be a valid dictionary")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, rec := range b.recipes[email] {
		if rec.ID == id {
			updated := patch.Apply(rec)
			b.recipes[email][i] = updated
			WriteJSON(w, http.StatusOK, updated)
			return
		}
	}
	WriteDetail(w, http.StatusNotFound, "Recipe not found")
}

func (b *Backend) remove(w http.ResponseWriter, r *http.Request, email string) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		WriteValidation(w, "Input should be a valid integer")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, rec := range b.recipes[email] {
		if rec.ID == id {
			b.recipes[email] = append(b.recipes[email][:i], b.recipes[email][i+1:]...)
			WriteJSON(w, http.StatusOK, map[string]string{"message": "Recipe deleted successfully"})
			return
		}
	}
	WriteDetail(w, http.StatusNotFound, "Recipe not found")
}

// issue mints a JWT-shaped token whose payload carries sub and exp claims. Caller holds mu.
func (b *Backend) issue(email string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims, _ := json.Marshal(map[string]any{"sub": email, "exp": time.Now().Add(time.Hour).Unix()})
	sig := base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(len(b.tokens))))

	token := fmt.Sprintf("%s.%s.%s", header, base64.RawURLEncoding.EncodeToString(claims), sig)
	b.tokens[token] = email
	return token
}

// WriteJSON writes v as a JSON response with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDetail writes the {"detail": "..."} error envelope.
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, map[string]string{"detail": detail})
}

// WriteValidation writes a 422 with the list-shaped detail used for validation failures.
func WriteValidation(w http.ResponseWriter, msgs ...string) {
	items := make([]map[string]any, 0, len(msgs))
	for _, msg := range msgs {
		items = append(items, map[string]any{"loc": []string{"body"}, "msg": msg, "type": "value_error"})
	}
	WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": items})
}

// MakeToken builds a JWT-shaped token around the given payload JSON.
func MakeToken(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." + enc.EncodeToString([]byte(payload)) + ".sig"
}

// SampleRecipes returns n well-formed recipes with ids start, start+1, ...
func SampleRecipes(start, n int) []models.Recipe {
	out := make([]models.Recipe, 0, n)
	for i := range n {
		id := start + i
		out = append(out, models.Recipe{
			ID:           id,
			Name:         fmt.Sprintf("Recipe %d", id),
			Ingredients:  []string{"salt", "pepper"},
			Instructions: []string{"Mix.", "Serve."},
		})
	}
	return out
}
