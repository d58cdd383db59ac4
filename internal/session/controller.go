package session

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/recipebox/internal/metrics"
	"github.com/desertthunder/recipebox/internal/models"
	"github.com/desertthunder/recipebox/internal/shared"
	"golang.org/x/oauth2"
)

// State is the logical session state.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Authenticator is the account API the controller drives.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*oauth2.Token, error)
	Register(ctx context.Context, creds models.Credentials) error
	Me(ctx context.Context, token string) (*models.User, error)
}

// Controller derives session state from the [TokenStore] and performs login and logout.
type Controller struct {
	tokens   *TokenStore
	auth     Authenticator
	logger   *log.Logger
	recorder metrics.Recorder

	// expiry serializes HandleUnauthorized so concurrent rejections clear once.
	expiry sync.Mutex

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// ControllerOpts contains configuration options for creating a [Controller].
type ControllerOpts struct {
	Tokens   *TokenStore
	Auth     Authenticator
	Logger   *log.Logger
	Recorder metrics.Recorder
}

// NewController creates a new [Controller] with the provided options.
func NewController(opts ControllerOpts) *Controller {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Controller{
		tokens:   opts.Tokens,
		auth:     opts.Auth,
		logger:   opts.Logger,
		recorder: metrics.OrNop(opts.Recorder),
		subs:     make(map[int]func(State)),
	}
}

// CurrentState reports Authenticated iff a credential is stored right now.
func (c *Controller) CurrentState(ctx context.Context) State {
	if _, ok := c.tokens.Get(ctx); ok {
		return Authenticated
	}
	return Anonymous
}

// Token returns the stored credential, or [shared.ErrNotAuthenticated].
//
// Callers read it once per request and never keep it.
func (c *Controller) Token(ctx context.Context) (string, error) {
	token, ok := c.tokens.Get(ctx)
	if !ok {
		return "", shared.ErrNotAuthenticated
	}
	return token, nil
}

// Identity returns the display identity of the stored credential, or "" when anonymous.
func (c *Controller) Identity(ctx context.Context) string {
	token, ok := c.tokens.Get(ctx)
	if !ok {
		return ""
	}
	return IdentityClaim(token)
}

// Login submits credentials and stores the issued token.
//
// On failure the stored credential is left as it was.
func (c *Controller) Login(ctx context.Context, creds models.Credentials) (State, error) {
	token, err := c.auth.Login(ctx, creds)
	if err != nil {
		c.recorder.RecordOperation("login", metrics.OutcomeFailure)
		return c.CurrentState(ctx), err
	}

	if err := c.tokens.Save(ctx, token.AccessToken); err != nil {
		c.recorder.RecordOperation("login", metrics.OutcomeFailure)
		return c.CurrentState(ctx), err
	}

	c.recorder.RecordOperation("login", metrics.OutcomeSuccess)
	c.logger.Info("logged in", "identity", IdentityClaim(token.AccessToken))
	c.notify(Authenticated)
	return Authenticated, nil
}

// Register creates an account. It never logs in.
func (c *Controller) Register(ctx context.Context, creds models.Credentials) error {
	if err := c.auth.Register(ctx, creds); err != nil {
		c.recorder.RecordOperation("register", metrics.OutcomeFailure)
		return err
	}
	c.recorder.RecordOperation("register", metrics.OutcomeSuccess)
	c.logger.Info("registered account", "email", creds.Email)
	return nil
}

// Logout clears the stored credential. It always succeeds; storage failures are logged.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Error("failed to clear credential on logout", "error", err)
	}
	c.recorder.RecordOperation("logout", metrics.OutcomeSuccess)
	c.notify(Anonymous)
}

// HandleUnauthorized clears the credential after an authorization rejection.
//
// Safe to call any number of times from concurrent callers: only the call that finds a
// credential present clears it and notifies subscribers.
func (c *Controller) HandleUnauthorized(ctx context.Context) {
	c.expiry.Lock()
	_, present := c.tokens.Get(ctx)
	if present {
		if err := c.tokens.Clear(ctx); err != nil {
			c.logger.Error("failed to remove expired credential from storage, ignoring it for this session", "error", err)
		}
	}
	c.expiry.Unlock()

	if !present {
		return
	}

	c.recorder.RecordSessionExpired()
	c.logger.Warn("session expired, credential cleared")
	c.notify(Anonymous)
}

// Check routes err through [Controller.HandleUnauthorized] when it is an authorization
// rejection, and returns err unchanged.
func (c *Controller) Check(ctx context.Context, err error) error {
	if errors.Is(err, shared.ErrUnauthorized) {
		c.HandleUnauthorized(ctx)
	}
	return err
}

// Me looks up the account that owns the stored credential.
func (c *Controller) Me(ctx context.Context) (*models.User, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	user, err := c.auth.Me(ctx, token)
	if err != nil {
		return nil, c.Check(ctx, err)
	}
	return user, nil
}

// Subscribe registers fn to be called after every state transition made by this controller.
//
// The returned func removes the subscription.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs[id] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Controller) notify(s State) {
	c.subMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
