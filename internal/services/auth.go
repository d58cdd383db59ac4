package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/recipebox/internal/models"
	"github.com/desertthunder/recipebox/internal/shared"
	"golang.org/x/oauth2"
)

// AuthService talks to the account endpoints of the recipe service.
type AuthService struct {
	client *Client
	oauth  *oauth2.Config
}

// NewAuthService creates an [AuthService] that issues requests through client.
func NewAuthService(client *Client) *AuthService {
	return &AuthService{
		client: client,
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  client.BaseURL() + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// Login exchanges credentials for a bearer token using the password grant.
//
// A rejection by the server is reported as [shared.ErrAuthFailed] wrapping the [*shared.HTTPError]
// that carries the server's detail.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*oauth2.Token, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if err := s.client.wait(ctx); err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client.httpClient)
	token, err := s.oauth.PasswordCredentialsToken(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access_token", shared.ErrMalformedResponse)
	}

	s.client.logger.Debug("login succeeded", "email", creds.Email, "token_type", token.TokenType)
	return token, nil
}

func classifyTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := http.StatusBadRequest
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}

		detail := ParseDetail(retrieveErr.Body)
		if detail == "" {
			detail = retrieveErr.ErrorDescription
		}
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, &shared.HTTPError{Status: status, Detail: detail})
	}

	if strings.Contains(err.Error(), "missing access_token") {
		return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	return fmt.Errorf("%w: %w", shared.ErrNetwork, err)
}

// Register creates a new account. It never logs in.
func (s *AuthService) Register(ctx context.Context, creds models.Credentials) error {
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return s.client.Do(ctx, http.MethodPost, "/users/register", "", creds, nil)
}

// Me returns the account that owns token.
func (s *AuthService) Me(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := s.client.Do(ctx, http.MethodGet, "/users/me", token, nil, &user); err != nil {
		return nil, err
	}
	if user.Email == "" {
		return nil, fmt.Errorf("%w: user has no email", shared.ErrMalformedResponse)
	}
	return &user, nil
}

// Health reports the status string returned by the service's health check.
func (s *AuthService) Health(ctx context.Context) (string, error) {
	var body struct {
		Status string `json:"status"`
	}
	if err := s.client.Do(ctx, http.MethodGet, "/health", "", nil, &body); err != nil {
		return "", err
	}
	if body.Status == "" {
		return "", fmt.Errorf("%w: missing status", shared.ErrMalformedResponse)
	}
	return body.Status, nil
}
