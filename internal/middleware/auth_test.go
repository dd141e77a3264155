package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/token"
)

// --- Test Helpers ---

func newTestTokens(t *testing.T) *token.Manager {
	t.Helper()
	tokens, err := token.New("test-secret-key-for-middleware-tests", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("creating token manager: %v", err)
	}
	return tokens
}

func issueTestToken(t *testing.T, tokens *token.Manager, userID int64) string {
	t.Helper()
	raw, err := tokens.Issue(token.Claims{UserID: userID, Username: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return raw
}

// runWithAuth dispatches a GET through RequireAuth into a handler that
// records the identity it saw.
func runWithAuth(t *testing.T, tokens *token.Manager, authHeader string) (*token.Claims, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *token.Claims
	handler := RequireAuth(tokens)(func(c echo.Context) error {
		claims, err := Identity(c)
		if err != nil {
			return err
		}
		seen = claims
		return c.NoContent(http.StatusOK)
	})
	return seen, handler(c)
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected 401 error, got nil")
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", appErr.Code)
	}
}

// --- RequireAuth Tests ---

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens := newTestTokens(t)
	raw := issueTestToken(t, tokens, 42)

	claims, err := runWithAuth(t, tokens, "Bearer "+raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims == nil {
		t.Fatal("expected claims in handler context")
	}
	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username alice, got %s", claims.Username)
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	tokens := newTestTokens(t)
	_, err := runWithAuth(t, tokens, "")
	assertUnauthorized(t, err)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	tokens := newTestTokens(t)
	raw := issueTestToken(t, tokens, 42)

	tests := []struct {
		name   string
		header string
	}{
		{"no scheme", raw},
		{"wrong scheme", "Basic " + raw},
		{"empty bearer", "Bearer "},
		{"lowercase scheme", "bearer " + raw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runWithAuth(t, tokens, tt.header)
			assertUnauthorized(t, err)
		})
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	tokens := newTestTokens(t)
	_, err := runWithAuth(t, tokens, "Bearer not-a-real-token")
	assertUnauthorized(t, err)
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	tokens := newTestTokens(t)
	other, err := token.New("a-completely-different-secret-key", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("creating token manager: %v", err)
	}
	raw := issueTestToken(t, other, 42)

	_, runErr := runWithAuth(t, tokens, "Bearer "+raw)
	assertUnauthorized(t, runErr)
}

// --- Identity / UserID Tests ---

func TestIdentity_MissingFromContext(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	if _, err := Identity(c); err == nil {
		t.Error("expected error when identity is not set")
	}
	if _, err := UserID(c); err == nil {
		t.Error("expected error when identity is not set")
	}
}

func TestUserID_FromContext(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(identityKey, &token.Claims{UserID: 7})

	id, err := UserID(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 {
		t.Errorf("expected user id 7, got %d", id)
	}
}

// --- RefreshToken Tests ---

// runWithRefresh dispatches a request through RefreshToken into a handler
// that writes a body, forcing the pre-write hook to run.
func runWithRefresh(t *testing.T, tokens *token.Manager, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	skip := []string{"/session/login", "/session/register", "/static"}
	handler := RefreshToken(tokens, skip)(func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	return rec
}

func TestRefreshToken_SetsRefreshedHeader(t *testing.T) {
	tokens := newTestTokens(t)
	raw := issueTestToken(t, tokens, 42)

	rec := runWithRefresh(t, tokens, "/user", "Bearer "+raw)

	header := rec.Header().Get(echo.HeaderAuthorization)
	if header == "" {
		t.Fatal("expected Authorization header on response")
	}
	refreshed := header[len("Bearer "):]
	claims, err := tokens.Verify(refreshed)
	if err != nil {
		t.Fatalf("refreshed token failed verification: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected refreshed token to keep user id 42, got %d", claims.UserID)
	}
}

func TestRefreshToken_SkipsExcludedPaths(t *testing.T) {
	tokens := newTestTokens(t)
	raw := issueTestToken(t, tokens, 42)

	tests := []struct {
		name string
		path string
	}{
		{"login", "/session/login"},
		{"register", "/session/register"},
		{"static asset", "/static/plans/1.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := runWithRefresh(t, tokens, tt.path, "Bearer "+raw)
			if got := rec.Header().Get(echo.HeaderAuthorization); got != "" {
				t.Errorf("expected no Authorization header on %s, got %q", tt.path, got)
			}
		})
	}
}

func TestRefreshToken_NoTokenNoHeader(t *testing.T) {
	tokens := newTestTokens(t)
	rec := runWithRefresh(t, tokens, "/plan", "")
	if got := rec.Header().Get(echo.HeaderAuthorization); got != "" {
		t.Errorf("expected no Authorization header without a request token, got %q", got)
	}
}

func TestRefreshToken_InvalidTokenFailsOpen(t *testing.T) {
	tokens := newTestTokens(t)

	// The request still succeeds; the response just carries no new token.
	rec := runWithRefresh(t, tokens, "/user", "Bearer garbage")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAuthorization); got != "" {
		t.Errorf("expected no Authorization header for invalid token, got %q", got)
	}
}
