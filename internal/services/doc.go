// Package services implements the HTTP side of the recipe client.
//
// # Transport
//
// [Client] performs every call to the recipe service. It paces requests with a token-bucket
// limiter, tags each request with an X-Request-ID, attaches the bearer credential when one is
// given, and classifies the outcome:
//   - no response at all: [shared.ErrNetwork]
//   - 401 or 403: [shared.ErrUnauthorized]
//   - any other non-2xx: [*shared.HTTPError] carrying the server's detail
//   - 2xx whose body does not decode: [shared.ErrMalformedResponse]
//
// The Client never retries and never touches session state; callers route
// [shared.ErrUnauthorized] to the session controller.
//
// # Server-reported details
//
// Failure bodies look like {"detail": "..."} or, for validation failures,
// {"detail": [{"msg": "..."}, ...]}. A string is reported verbatim; messages from a list are
// joined with "; ".
//
// # Auth
//
// [AuthService] logs in with the OAuth2 resource-owner password grant against /token
// (form-encoded username and password), registers accounts, and looks up the current user.
//
// # Recipes
//
// [RecipeAPI] wraps the four recipe endpoints: list, obtain-by-URL, partial update and delete.
package services
