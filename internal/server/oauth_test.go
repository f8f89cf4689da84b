package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

// stubExchanger answers every code exchange with a fixed token or error.
type stubExchanger struct {
	token *oauth2.Token
	err   error
}

func (s *stubExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return s.token, s.err
}

func newTestOAuthHandler(state string) *OAuthHandler {
	exchanger := &stubExchanger{token: &oauth2.Token{AccessToken: "test_access_token"}}
	return NewOAuthHandler(exchanger, state)
}

func TestOAuthHandler(t *testing.T) {
	t.Run("rejects a mismatched state", func(t *testing.T) {
		handler := newTestOAuthHandler("expected-state")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected an error result for forged state")
		}
	})

	t.Run("reports the provider's denial", func(t *testing.T) {
		handler := newTestOAuthHandler("state-1")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state-1&error=access_denied&error_description=denied", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected the denial in the result, got %v", result.Error())
		}
	})

	t.Run("handles the callback only once", func(t *testing.T) {
		handler := newTestOAuthHandler("state-1")

		first := httptest.NewRequest(http.MethodGet, "/callback?state=forged", nil)
		handler.ServeHTTP(httptest.NewRecorder(), first)

		second := httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, second)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replayed callback to be rejected, got %d", rec.Code)
		}
	})

	t.Run("delivers the exchanged token", func(t *testing.T) {
		handler := newTestOAuthHandler("state-1")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Token == nil || result.Token.AccessToken != "test_access_token" {
			t.Errorf("expected the exchanged token, got %+v", result.Token)
		}
	})

	t.Run("reports a failed exchange", func(t *testing.T) {
		handler := NewOAuthHandler(&stubExchanger{err: context.DeadlineExceeded}, "state-1")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "token exchange failed") {
			t.Errorf("expected exchange failure in the result, got %v", result.Error())
		}
	})

	t.Run("serves the callback route", func(t *testing.T) {
		handler := newTestOAuthHandler("state-1")

		routes := handler.Routes()
		if len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("expected the /callback route, got %v", routes)
		}
	})
}
