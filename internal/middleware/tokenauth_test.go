package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

// dummyHandler records whether it was reached.
type dummyHandler struct {
	called bool
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	w.WriteHeader(http.StatusOK)
}

func TestTokenAuth_ValidToken(t *testing.T) {
	dummy := &dummyHandler{}
	h := TokenAuth("s3cret")(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	h.ServeHTTP(rec, req)

	if !dummy.called {
		t.Error("expected next handler to be called with a valid token")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 OK, got %d", rec.Code)
	}
}

func TestTokenAuth_WrongToken(t *testing.T) {
	dummy := &dummyHandler{}
	h := TokenAuth("s3cret")(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer nope")
	h.ServeHTTP(rec, req)

	if dummy.called {
		t.Error("did not expect next handler to be called with a wrong token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized, got %d", rec.Code)
	}
}

func TestTokenAuth_MissingHeader(t *testing.T) {
	dummy := &dummyHandler{}
	h := TokenAuth("s3cret")(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/admin/users", nil)
	h.ServeHTTP(rec, req)

	if dummy.called {
		t.Error("did not expect next handler to be called without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized, got %d", rec.Code)
	}
}

func TestTokenAuth_EmptyConfiguredToken(t *testing.T) {
	dummy := &dummyHandler{}
	h := TokenAuth("")(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer ")
	h.ServeHTTP(rec, req)

	if dummy.called {
		t.Error("did not expect next handler to be called when no token is configured")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 Forbidden, got %d", rec.Code)
	}
}

func TestWithRequestLogging_PassesThrough(t *testing.T) {
	dummy := &dummyHandler{}
	h := WithRequestLogging(zap.NewNop())(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin/users", nil)
	h.ServeHTTP(rec, req)

	if !dummy.called {
		t.Error("expected next handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 OK, got %d", rec.Code)
	}
}
