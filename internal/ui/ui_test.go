package ui

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/recipebox/internal/models"
	"github.com/desertthunder/recipebox/internal/prefs"
	"github.com/desertthunder/recipebox/internal/recipes"
	"github.com/desertthunder/recipebox/internal/repositories"
	"github.com/desertthunder/recipebox/internal/services"
	"github.com/desertthunder/recipebox/internal/session"
	"github.com/desertthunder/recipebox/internal/shared"
	"github.com/desertthunder/recipebox/internal/tasks"
	tu "github.com/desertthunder/recipebox/internal/testing"
)

const cook = "cook@example.com"

type fixture struct {
	backend *tu.Backend
	session *session.Controller
	repo    *recipes.Repository
	prefs   *prefs.Store
	model   *Model
}

func newFixture(t *testing.T, loggedIn bool, seed ...models.Recipe) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	logger := shared.NewLogger(io.Discard)

	backend := tu.NewBackend(t)
	backend.AddUser(cook, "secret")
	backend.Seed(cook, seed...)

	kv := repositories.NewMemoryKV()
	client := services.NewClient(services.ClientOpts{BaseURL: backend.URL(), Logger: logger})
	ctrl := session.NewController(session.ControllerOpts{
		Tokens: session.NewTokenStore(kv, logger),
		Auth:   services.NewAuthService(client),
		Logger: logger,
	})
	if loggedIn {
		if _, err := ctrl.Login(ctx, models.Credentials{Email: cook, Password: "secret"}); err != nil {
			t.Fatalf("login failed: %v", err)
		}
	}

	api := services.NewRecipeAPI(client)
	repo := recipes.NewRepository(recipes.RepositoryOpts{API: api, Session: ctrl, Logger: logger})
	store := prefs.NewStore(kv, logger)
	wf := tasks.NewWorkflow(tasks.WorkflowOpts{API: api, Repo: repo, Session: ctrl, Logger: logger})

	m := NewModel(ctx, ModelOpts{Session: ctrl, Repo: repo, Workflow: wf, Prefs: store, Logger: logger, RefreshOnStart: true})
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 90, Height: 40})

	return &fixture{backend: backend, session: ctrl, repo: repo, prefs: store, model: m}
}

// drain feeds every queued subscription event back into the model.
func (f *fixture) drain() {
	for {
		select {
		case msg := <-f.model.events:
			f.model.Update(msg)
		default:
			return
		}
	}
}

// press sends one key and runs the resulting command when run is set.
func (f *fixture) press(k tea.KeyMsg, run bool) {
	_, cmd := f.model.Update(k)
	if run && cmd != nil {
		f.model.Update(cmd())
	}
	f.drain()
}

// load runs the initial fetch the program would start.
func (f *fixture) load() {
	f.model.Update(f.model.fetch()())
	f.drain()
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	right = tea.KeyMsg{Type: tea.KeyRight}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func listedIDs(m *Model) []int {
	var ids []int
	for _, item := range m.list.Items() {
		ids = append(ids, item.(recipeItem).recipe.ID)
	}
	return ids
}

func TestModelLogin(t *testing.T) {
	t.Run("Starts At Login When Anonymous", func(t *testing.T) {
		f := newFixture(t, false)
		if f.model.view != LoginView {
			t.Fatalf("expected LoginView, got %v", f.model.view)
		}
		if !strings.Contains(f.model.View(), "Sign in") {
			t.Error("expected login prompt")
		}
	})

	t.Run("Successful Login Loads Collection", func(t *testing.T) {
		f := newFixture(t, false, tu.SampleRecipes(1, 3)...)
		f.model.email.SetValue(cook)
		f.model.password.SetValue("secret")

		f.press(enter, true)
		if f.model.view != ListView {
			t.Fatalf("expected ListView after login, got %v", f.model.view)
		}

		f.load()
		if got := listedIDs(f.model); len(got) != 3 {
			t.Errorf("expected 3 recipes, got %v", got)
		}
		if f.model.password.Value() != "" {
			t.Error("expected password cleared")
		}
	})

	t.Run("Wrong Password Stays On Prompt", func(t *testing.T) {
		f := newFixture(t, false)
		f.model.email.SetValue(cook)
		f.model.password.SetValue("nope")

		f.press(enter, true)
		if f.model.view != LoginView {
			t.Errorf("expected LoginView, got %v", f.model.view)
		}
		if f.model.statusKind != statusErr || !strings.Contains(f.model.status, "Incorrect username or password") {
			t.Errorf("expected server reason, got %q", f.model.status)
		}
	})

	t.Run("Blank Fields Make No Request", func(t *testing.T) {
		f := newFixture(t, false)
		f.press(enter, true)
		if f.backend.Hits("POST", "/token") != 0 {
			t.Error("expected no request")
		}
		if f.model.statusKind != statusErr {
			t.Error("expected error status")
		}
	})

	t.Run("Register Then Login", func(t *testing.T) {
		f := newFixture(t, false)
		f.press(tea.KeyMsg{Type: tea.KeyCtrlR}, false)
		if !f.model.registering {
			t.Fatal("expected register mode")
		}

		f.model.email.SetValue("new@example.com")
		f.model.password.SetValue("pw")
		f.press(enter, true)

		if f.model.view != ListView {
			t.Errorf("expected ListView, got %v", f.model.view)
		}
		if f.session.Identity(context.Background()) != "new@example.com" {
			t.Error("expected new account identity")
		}
	})

	t.Run("Tab Switches Field", func(t *testing.T) {
		f := newFixture(t, false)
		f.press(tab, false)
		if !f.model.password.Focused() || f.model.email.Focused() {
			t.Error("expected password focused")
		}
		f.press(tab, false)
		if !f.model.email.Focused() {
			t.Error("expected email focused")
		}
	})
}

func TestModelCollection(t *testing.T) {
	t.Run("Add By URL", func(t *testing.T) {
		f := newFixture(t, true, tu.SampleRecipes(1, 2)...)
		f.load()

		f.press(runes("a"), false)
		if f.model.view != AddView {
			t.Fatalf("expected AddView, got %v", f.model.view)
		}

		f.model.url.SetValue("http://x/tomato-soup")
		f.press(enter, true)

		if f.model.view != ListView {
			t.Errorf("expected ListView, got %v", f.model.view)
		}
		if ids := listedIDs(f.model); len(ids) != 3 || ids[0] != 100 {
			t.Errorf("expected new recipe first, got %v", ids)
		}
		if f.model.statusKind != statusOK || !strings.Contains(f.model.status, "tomato soup") {
			t.Errorf("unexpected status %q", f.model.status)
		}
	})

	t.Run("Invalid URL Stays On Form", func(t *testing.T) {
		f := newFixture(t, true)
		f.load()

		f.press(runes("a"), false)
		f.model.url.SetValue("not a url")
		f.press(enter, true)

		if f.model.view != AddView {
			t.Errorf("expected AddView, got %v", f.model.view)
		}
		if f.backend.Hits("POST", "/obtainrecipe") != 0 {
			t.Error("expected no request")
		}

		f.press(esc, false)
		if f.model.view != ListView {
			t.Errorf("expected esc to return to list, got %v", f.model.view)
		}
	})

	t.Run("Delete Requires Confirmation", func(t *testing.T) {
		f := newFixture(t, true, tu.SampleRecipes(1, 3)...)
		f.load()

		f.press(runes("d"), false)
		if f.model.view != ConfirmView {
			t.Fatalf("expected ConfirmView, got %v", f.model.view)
		}
		f.press(runes("n"), false)
		if f.model.view != ListView || f.repo.Len() != 3 {
			t.Fatal("expected cancel to keep every record")
		}

		f.press(runes("d"), false)
		f.press(runes("y"), true)
		if ids := listedIDs(f.model); len(ids) != 2 || ids[0] != 2 {
			t.Errorf("expected record 1 removed, got %v", ids)
		}
		if !strings.Contains(f.model.status, "Recipe deleted successfully") {
			t.Errorf("expected server message, got %q", f.model.status)
		}
	})

	t.Run("Failed Delete Keeps Record", func(t *testing.T) {
		f := newFixture(t, true, tu.SampleRecipes(1, 2)...)
		f.load()
		f.backend.Override("DELETE", "/deleterecipe/1", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteDetail(w, http.StatusInternalServerError, "database unavailable")
		})

		f.press(runes("d"), false)
		f.press(runes("y"), true)
		if f.repo.Len() != 2 {
			t.Error("expected record kept")
		}
		if f.model.statusKind != statusErr || !strings.Contains(f.model.status, "database unavailable") {
			t.Errorf("expected failure reason, got %q", f.model.status)
		}
	})

	t.Run("Detail View", func(t *testing.T) {
		f := newFixture(t, true, tu.SampleRecipes(1, 1)...)
		f.load()

		f.press(enter, false)
		if f.model.view != DetailView || !strings.Contains(f.model.View(), "Recipe 1") {
			t.Fatal("expected detail of recipe 1")
		}
		f.press(esc, false)
		if f.model.view != ListView {
			t.Error("expected list view")
		}
	})

	t.Run("Grid Navigation", func(t *testing.T) {
		f := newFixture(t, true, tu.SampleRecipes(1, 7)...)
		f.load()
		if f.model.layout != prefs.Grid {
			t.Fatalf("expected grid by default, got %s", f.model.layout)
		}

		f.press(right, false)
		if f.model.list.Index() != 1 {
			t.Errorf("expected index 1, got %d", f.model.list.Index())
		}
		f.press(down, false)
		if want := 1 + gridColumns(90); f.model.list.Index() != want {
			t.Errorf("expected index %d, got %d", want, f.model.list.Index())
		}
		for range 10 {
			f.press(down, false)
		}
		if f.model.list.Index() != 6 {
			t.Errorf("expected clamp to last, got %d", f.model.list.Index())
		}
	})
}

func TestModelSession(t *testing.T) {
	t.Run("Expired Session Returns To Login", func(t *testing.T) {
		f := newFixture(t, true, tu.SampleRecipes(1, 2)...)
		f.load()

		token, _ := f.session.Token(context.Background())
		f.backend.Revoke(token)
		f.press(runes("r"), true)

		if f.model.view != LoginView {
			t.Fatalf("expected LoginView, got %v", f.model.view)
		}
		if f.model.status != shared.ErrUnauthorized.Error() {
			t.Errorf("expected re-login prompt, got %q", f.model.status)
		}
		if f.repo.Len() != 2 || len(f.model.list.Items()) != 2 {
			t.Error("expected collection kept after expiry")
		}
	})

	t.Run("Rejected Delete Keeps Record", func(t *testing.T) {
		f := newFixture(t, true, tu.SampleRecipes(1, 5)...)
		f.load()

		token, _ := f.session.Token(context.Background())
		f.backend.Revoke(token)
		f.model.Update(f.model.remove(5)())
		f.drain()

		if f.session.CurrentState(context.Background()) != session.Anonymous {
			t.Fatal("expected Anonymous after rejected delete")
		}
		if _, ok := f.repo.Get(5); !ok || f.repo.Len() != 5 {
			t.Errorf("expected record 5 kept, got %v", tu.RecipeIDs(f.repo.Snapshot()))
		}
		if f.model.view != LoginView {
			t.Errorf("expected LoginView, got %v", f.model.view)
		}
	})

	t.Run("Signing In Again Keeps Collection", func(t *testing.T) {
		f := newFixture(t, true, tu.SampleRecipes(1, 2)...)
		f.load()

		token, _ := f.session.Token(context.Background())
		f.backend.Revoke(token)
		f.press(runes("r"), true)

		f.model.email.SetValue(cook)
		f.model.password.SetValue("secret")
		f.press(enter, true)

		if f.model.view != ListView {
			t.Fatalf("expected ListView, got %v", f.model.view)
		}
		if f.repo.Len() != 2 {
			t.Errorf("expected collection kept for the same user, got %d", f.repo.Len())
		}
	})

	t.Run("Another User Starts Empty", func(t *testing.T) {
		f := newFixture(t, true, tu.SampleRecipes(1, 2)...)
		f.load()
		f.backend.AddUser("other@example.com", "pw")

		token, _ := f.session.Token(context.Background())
		f.backend.Revoke(token)
		f.press(runes("r"), true)

		f.model.email.SetValue("other@example.com")
		f.model.password.SetValue("pw")
		f.press(enter, true)

		if f.model.view != ListView {
			t.Fatalf("expected ListView, got %v", f.model.view)
		}
		if f.repo.Len() != 0 {
			t.Errorf("expected previous user's records dropped, got %v", tu.RecipeIDs(f.repo.Snapshot()))
		}
	})

	t.Run("Logout", func(t *testing.T) {
		f := newFixture(t, true, tu.SampleRecipes(1, 2)...)
		f.load()

		f.press(runes("L"), false)
		if f.model.view != LoginView || f.model.status != "Logged out" {
			t.Errorf("expected logged out login view, got %v %q", f.model.view, f.model.status)
		}
		if f.session.CurrentState(context.Background()) != session.Anonymous {
			t.Error("expected Anonymous")
		}
		if f.repo.Len() != 0 || len(f.model.list.Items()) != 0 {
			t.Error("expected collection cleared on logout")
		}
	})
}

func TestModelPreferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, tu.SampleRecipes(1, 2)...)
	f.load()

	if f.model.palette != palettes[prefs.Light] {
		t.Error("expected light palette by default")
	}

	f.press(runes("t"), false)
	if f.prefs.Get(ctx, prefs.Theme) != prefs.Dark || f.model.palette != palettes[prefs.Dark] {
		t.Error("expected dark theme persisted and applied")
	}

	f.press(runes("v"), false)
	if f.prefs.Get(ctx, prefs.View) != prefs.List || f.model.layout != prefs.List {
		t.Error("expected list layout persisted and applied")
	}
	if !strings.Contains(f.model.View(), "Recipe 2") {
		t.Error("expected list to render recipes")
	}
}

func TestRenderGrid(t *testing.T) {
	p := PaletteFor(prefs.Dark)

	if out := renderGrid(nil, 0, 90, p); !strings.Contains(out, "No recipes yet") {
		t.Errorf("expected empty message, got %q", out)
	}

	out := renderGrid(tu.SampleRecipes(1, 4), 0, 90, p)
	for _, name := range []string{"Recipe 1", "Recipe 4"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected %s in grid", name)
		}
	}

	if gridColumns(10) != 1 || gridColumns(90) != 3 {
		t.Error("unexpected column count")
	}
	if PaletteFor("sepia") != palettes[prefs.Light] {
		t.Error("expected unknown theme to fall back to default")
	}
}
