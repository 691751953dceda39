package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lric3/recipes/config"
	"github.com/lric3/recipes/internal/store"
	"github.com/lric3/recipes/types"
)

type fakeUserFinder struct {
	users map[string]types.User
}

func (f *fakeUserFinder) GetByUsername(_ context.Context, username string) (types.User, error) {
	user, ok := f.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

// captureHandler records whether it was reached and the identity it saw.
type captureHandler struct {
	called   bool
	identity Identity
	attached bool
}

func (h *captureHandler) ServeHTTP(_ http.ResponseWriter, r *http.Request) {
	h.called = true
	h.identity, h.attached = FromContext(r.Context())
}

func newAuthFixture(t *testing.T) (*Codec, *fakeUserFinder) {
	t.Helper()
	codec := NewCodec(config.JWTConfig{Secret: "test-secret", Lifetime: time.Hour})
	finder := &fakeUserFinder{users: map[string]types.User{
		"alice": {ID: 1, Username: "alice", Role: types.RoleUser},
	}}
	return codec, finder
}

func runMiddleware(codec *Codec, finder *fakeUserFinder, r *http.Request) (*captureHandler, *httptest.ResponseRecorder) {
	next := &captureHandler{}
	recorder := httptest.NewRecorder()
	Middleware(codec, finder)(next).ServeHTTP(recorder, r)
	return next, recorder
}

func TestMiddlewareAttachesIdentity(t *testing.T) {
	codec, finder := newAuthFixture(t)

	token, err := codec.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	next, recorder := runMiddleware(codec, finder, r)
	if !next.called {
		t.Fatal("handler not reached")
	}
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}
	if !next.attached {
		t.Fatal("expected identity attached")
	}
	if next.identity.Username != "alice" || next.identity.Role != types.RoleUser {
		t.Fatalf("identity = %+v", next.identity)
	}
}

func TestMiddlewarePassesThroughAnonymously(t *testing.T) {
	codec, finder := newAuthFixture(t)

	expiredCodec := NewCodec(config.JWTConfig{Secret: "test-secret", Lifetime: time.Minute})
	issued := time.Now().Add(-time.Hour)
	expiredCodec.now = func() time.Time { return issued }
	expired, err := expiredCodec.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	headers := map[string]string{
		"no header":        "",
		"empty value":      " ",
		"bare scheme":      "Bearer",
		"lowercase scheme": "bearer abc",
		"wrong scheme":     "Basic abc",
		"garbage token":    "Bearer not-a-token",
		"expired token":    "Bearer " + expired,
	}
	for name, header := range headers {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}

		next, recorder := runMiddleware(codec, finder, r)
		if !next.called {
			t.Fatalf("%s: handler not reached", name)
		}
		if recorder.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want %d", name, recorder.Code, http.StatusOK)
		}
		if next.attached {
			t.Fatalf("%s: unexpected identity %+v", name, next.identity)
		}
	}
}

func TestMiddlewareFailsOnUnknownPrincipal(t *testing.T) {
	codec, finder := newAuthFixture(t)

	token, err := codec.Issue("ghost")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	next, recorder := runMiddleware(codec, finder, r)
	if next.called {
		t.Fatal("handler reached, want request rejected")
	}
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusInternalServerError)
	}
}

func TestMiddlewareKeepsExistingIdentity(t *testing.T) {
	codec, finder := newAuthFixture(t)

	token, err := codec.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	r = r.WithContext(WithIdentity(r.Context(), Identity{Username: "bob", Role: types.RoleAdmin}))

	next, _ := runMiddleware(codec, finder, r)
	if !next.attached {
		t.Fatal("expected identity attached")
	}
	if next.identity.Username != "bob" {
		t.Fatalf("identity = %+v, want the pre-attached one", next.identity)
	}
}

func TestRequireIdentity(t *testing.T) {
	next := &captureHandler{}
	recorder := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	RequireIdentity(next).ServeHTTP(recorder, r)
	if next.called {
		t.Fatal("handler reached without identity")
	}
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusUnauthorized)
	}

	next = &captureHandler{}
	recorder = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithIdentity(r.Context(), Identity{Username: "alice"}))
	RequireIdentity(next).ServeHTTP(recorder, r)
	if !next.called {
		t.Fatal("handler not reached with identity")
	}
}
