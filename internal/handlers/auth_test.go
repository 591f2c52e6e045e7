package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"github.com/gramtop961/backend/internal/auth"
	"github.com/gramtop961/backend/internal/db"
	"github.com/gramtop961/backend/internal/handlers"
	"github.com/gramtop961/backend/internal/middleware"
	"github.com/gramtop961/backend/internal/models"
)

// fakeStore is an in-memory handlers.UserStore keyed by email.
type fakeStore struct {
	byEmail     map[string]*models.User
	insertErr   error
	unavailable bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{byEmail: map[string]*models.User{}}
}

func (f *fakeStore) FindByEmail(_ context.Context, email string, limit int64) ([]models.User, error) {
	if f.unavailable {
		return nil, db.ErrUnavailable
	}
	if u, ok := f.byEmail[email]; ok && limit > 0 {
		return []models.User{*u}, nil
	}
	return nil, nil
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*models.User, error) {
	if f.unavailable {
		return nil, db.ErrUnavailable
	}
	for _, u := range f.byEmail {
		if u.ID.Hex() == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Insert(_ context.Context, u *models.User) (string, error) {
	if f.unavailable {
		return "", db.ErrUnavailable
	}
	if f.insertErr != nil {
		return "", f.insertErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return "", db.ErrDuplicateEmail
	}
	u.ID = bson.NewObjectID()
	cp := *u
	f.byEmail[u.Email] = &cp
	return u.ID.Hex(), nil
}

func testIssuer() *auth.Issuer {
	return &auth.Issuer{Secret: []byte("test-secret"), TTL: 7 * 24 * time.Hour}
}

func newAuthHandler(store handlers.UserStore) *handlers.AuthHandler {
	return &handlers.AuthHandler{Users: store, Issuer: testIssuer(), Log: zap.NewNop()}
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

type authResp struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		IsActive bool   `json:"is_active"`
		Role     string `json:"role"`
	} `json:"user"`
}

// -------------- signup ----------------------

func TestSignUp(t *testing.T) {
	store := newFakeStore()
	h := newAuthHandler(store)

	rr := postJSON(t, h.SignUp, `{"name":"  Ann  ","email":"Ann@X.com","password":"secret1"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "password_hash") {
		t.Fatalf("response leaks password_hash: %s", rr.Body.String())
	}

	var resp authResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("no token")
	}
	if resp.User.Email != "ann@x.com" {
		t.Fatalf("email = %q, want lowercased", resp.User.Email)
	}
	if resp.User.Name != "Ann" {
		t.Fatalf("name = %q, want trimmed", resp.User.Name)
	}
	if !resp.User.IsActive || resp.User.Role != "user" {
		t.Fatalf("defaults not applied: %+v", resp.User)
	}

	// Token claims carry the generated id and the normalized email.
	claims, err := testIssuer().Verify(resp.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != resp.User.ID {
		t.Fatalf("sub = %q, want %q", claims.Subject, resp.User.ID)
	}
	if claims.Email != "ann@x.com" {
		t.Fatalf("claim email = %q", claims.Email)
	}

	stored := store.byEmail["ann@x.com"]
	if stored == nil {
		t.Fatal("user not stored under lowercase email")
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "secret1" {
		t.Fatalf("bad stored hash: %q", stored.PasswordHash)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	h := newAuthHandler(newFakeStore())

	if rr := postJSON(t, h.SignUp, `{"name":"Ann","email":"ann@x.com","password":"secret1"}`); rr.Code != http.StatusCreated {
		t.Fatalf("first signup: %d", rr.Code)
	}

	// Same email, different case.
	rr := postJSON(t, h.SignUp, `{"name":"Ann","email":"ANN@X.com","password":"secret2"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("second signup status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Email already registered") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestSignUpLostInsertRace(t *testing.T) {
	// Existence check passes but the unique index rejects the insert.
	store := newFakeStore()
	store.insertErr = db.ErrDuplicateEmail
	h := newAuthHandler(store)

	rr := postJSON(t, h.SignUp, `{"name":"Ann","email":"ann@x.com","password":"secret1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Email already registered") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestSignUpValidation(t *testing.T) {
	h := newAuthHandler(newFakeStore())

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"short name", `{"name":"A","email":"a@x.com","password":"secret1"}`, "name"},
		{"bad email", `{"name":"Ann","email":"nope","password":"secret1"}`, "email"},
		{"short password", `{"name":"Ann","email":"a@x.com","password":"12345"}`, "password"},
		{"long password", `{"name":"Ann","email":"a@x.com","password":"` + strings.Repeat("p", 129) + `"}`, "password"},
		{"not json", `{"name":`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(t, h.SignUp, tc.body)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
			}
			if tc.field != "" && !strings.Contains(rr.Body.String(), tc.field) {
				t.Fatalf("detail does not name %q: %s", tc.field, rr.Body.String())
			}
		})
	}
}

func TestSignUpStoreUnavailable(t *testing.T) {
	store := newFakeStore()
	store.unavailable = true
	h := newAuthHandler(store)

	rr := postJSON(t, h.SignUp, `{"name":"Ann","email":"ann@x.com","password":"secret1"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Database not configured") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

// -------------- login ------------------------

func TestLoginRoundTrip(t *testing.T) {
	store := newFakeStore()
	h := newAuthHandler(store)

	rr := postJSON(t, h.SignUp, `{"name":"Ann","email":"Ann@X.com","password":"secret1"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup: %d", rr.Code)
	}
	var signedUp authResp
	if err := json.Unmarshal(rr.Body.Bytes(), &signedUp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Login with yet another casing of the same address.
	rr = postJSON(t, h.Login, `{"email":"ANN@x.com","password":"secret1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rr.Code, rr.Body.String())
	}
	var loggedIn authResp
	if err := json.Unmarshal(rr.Body.Bytes(), &loggedIn); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loggedIn.User.ID != signedUp.User.ID {
		t.Fatalf("login returned a different user: %q vs %q", loggedIn.User.ID, signedUp.User.ID)
	}
	if loggedIn.Token == "" {
		t.Fatal("no token")
	}
	if strings.Contains(rr.Body.String(), "password_hash") {
		t.Fatal("response leaks password_hash")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	store := newFakeStore()
	h := newAuthHandler(store)

	if rr := postJSON(t, h.SignUp, `{"name":"Ann","email":"ann@x.com","password":"secret1"}`); rr.Code != http.StatusCreated {
		t.Fatalf("signup: %d", rr.Code)
	}

	unknown := postJSON(t, h.Login, `{"email":"nobody@x.com","password":"secret1"}`)
	wrongPw := postJSON(t, h.Login, `{"email":"ann@x.com","password":"secret2"}`)

	if unknown.Code != http.StatusUnauthorized || wrongPw.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d", unknown.Code, wrongPw.Code)
	}
	if unknown.Body.String() != wrongPw.Body.String() {
		t.Fatalf("login failures differ: %q vs %q", unknown.Body.String(), wrongPw.Body.String())
	}
}

func TestLoginMissingHashFailsSafely(t *testing.T) {
	store := newFakeStore()
	store.byEmail["ann@x.com"] = &models.User{
		ID:    bson.NewObjectID(),
		Name:  "Ann",
		Email: "ann@x.com",
		// no password_hash field on the stored document
	}
	h := newAuthHandler(store)

	rr := postJSON(t, h.Login, `{"email":"ann@x.com","password":"secret1"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestLoginDefaultsForLegacyRecords(t *testing.T) {
	store := newFakeStore()
	hash, err := auth.HashPassword("secret1")
	if err != nil {
		t.Fatal(err)
	}
	// Document created before is_active and role existed.
	store.byEmail["old@x.com"] = &models.User{
		ID:           bson.NewObjectID(),
		Name:         "Old",
		Email:        "old@x.com",
		PasswordHash: hash,
	}
	h := newAuthHandler(store)

	rr := postJSON(t, h.Login, `{"email":"old@x.com","password":"secret1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp authResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.User.IsActive || resp.User.Role != "user" {
		t.Fatalf("defaults not applied: %+v", resp.User)
	}
}

func TestLoginStoreUnavailable(t *testing.T) {
	store := newFakeStore()
	store.unavailable = true
	h := newAuthHandler(store)

	rr := postJSON(t, h.Login, `{"email":"ann@x.com","password":"secret1"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

// -------------- me ---------------------------

func meRouter(h *handlers.AuthHandler) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.Issuer))
		r.Get("/auth/me", h.Me)
	})
	return r
}

func TestMe(t *testing.T) {
	store := newFakeStore()
	h := newAuthHandler(store)

	rr := postJSON(t, h.SignUp, `{"name":"Ann","email":"ann@x.com","password":"secret1"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup: %d", rr.Code)
	}
	var signedUp authResp
	if err := json.Unmarshal(rr.Body.Bytes(), &signedUp); err != nil {
		t.Fatal(err)
	}

	router := meRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+signedUp.Token)
	got := httptest.NewRecorder()
	router.ServeHTTP(got, req)

	if got.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", got.Code, got.Body.String())
	}
	var pub struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(got.Body.Bytes(), &pub); err != nil {
		t.Fatal(err)
	}
	if pub.ID != signedUp.User.ID || pub.Email != "ann@x.com" {
		t.Fatalf("unexpected user: %+v", pub)
	}
}

func TestMeUnauthorized(t *testing.T) {
	h := newAuthHandler(newFakeStore())
	router := meRouter(h)

	for _, header := range []string{"", "Bearer ", "Bearer garbage", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		got := httptest.NewRecorder()
		router.ServeHTTP(got, req)
		if got.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d", header, got.Code)
		}
	}
}
