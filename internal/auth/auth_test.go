package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/vectorflow/vectorflow/internal/db"
)

type memStore struct {
	users map[string]db.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]db.User)}
}

func (m *memStore) CreateUser(_ context.Context, arg db.CreateUserParams) (db.User, error) {
	for _, u := range m.users {
		if u.Email == arg.Email {
			return db.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := db.User{ID: arg.ID, Email: arg.Email, Password: arg.Password, DisplayName: arg.DisplayName}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return db.User{}, pgx.ErrNoRows
}

func (m *memStore) GetUserByID(_ context.Context, id string) (db.User, error) {
	u, ok := m.users[id]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func newTestService() *Service {
	s := NewService(newMemStore(), "test-secret")
	s.bcryptCost = bcrypt.MinCost
	return s
}

func TestRegisterLogin(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	reg, err := s.Register(ctx, "ada@example.com", "correct horse", "Ada")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.User.DisplayName != "Ada" || reg.Token == "" {
		t.Fatalf("register result %+v", reg)
	}

	if _, err := s.Register(ctx, "ada@example.com", "another one", "Ada 2"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate register err = %v, want ErrEmailTaken", err)
	}

	login, err := s.Login(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	userID, err := s.ValidateToken(login.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != reg.User.ID {
		t.Errorf("token subject got %q, want %q", userID, reg.User.ID)
	}

	tests := []struct {
		email, password string
	}{
		{"ada@example.com", "wrong password"},
		{"nobody@example.com", "correct horse"},
	}
	for _, tt := range tests {
		if _, err := s.Login(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%q, %q) err = %v, want ErrInvalidCredentials", tt.email, tt.password, err)
		}
	}
}

func TestValidateTokenRejects(t *testing.T) {
	s := newTestService()
	token, err := s.issueToken("user_1")
	if err != nil {
		t.Fatal(err)
	}

	other := NewService(newMemStore(), "other-secret")
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign secret err = %v, want ErrInvalidToken", err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * tokenTTL) }
	if _, err := s.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token err = %v, want ErrInvalidToken", err)
	}

	if _, err := s.ValidateToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage err = %v, want ErrInvalidToken", err)
	}
}

func TestMiddleware(t *testing.T) {
	s := newTestService()
	token, _ := s.issueToken("user_1")

	var seen string
	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status got %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && seen != "user_1" {
				t.Errorf("user in context got %q", seen)
			}
		})
	}
}

func TestRegisterHandler(t *testing.T) {
	h := NewHandler(newTestService())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing fields", `{"email":"a@b.c"}`, http.StatusBadRequest},
		{"bad email", `{"email":"nope","password":"12345678","displayName":"A"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@b.c","password":"123","displayName":"A"}`, http.StatusBadRequest},
		{"created", `{"email":"a@b.c","password":"12345678","displayName":"A"}`, http.StatusCreated},
		{"duplicate", `{"email":"a@b.c","password":"12345678","displayName":"A"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Register(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status got %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestLoginHandlerNormalizesEmail(t *testing.T) {
	s := newTestService()
	h := NewHandler(s)

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"  Grace@Example.com ","password":"12345678","displayName":" Grace "}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"lowercase", `{"email":"grace@example.com","password":"12345678"}`, http.StatusOK},
		{"mixed case", `{"email":"GRACE@example.COM","password":"12345678"}`, http.StatusOK},
		{"wrong password", `{"email":"grace@example.com","password":"87654321"}`, http.StatusUnauthorized},
		{"missing password", `{"email":"grace@example.com"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Fatalf("status got %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
			if tt.want != http.StatusOK {
				return
			}
			var res AuthResult
			if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
				t.Fatal(err)
			}
			if res.User.Email != "grace@example.com" || res.User.DisplayName != "Grace" {
				t.Errorf("user got %+v", res.User)
			}
		})
	}
}

func TestMeHandler(t *testing.T) {
	s := newTestService()
	res, err := s.Register(context.Background(), "me@example.com", "password1", "Me")
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(WithUserID(req.Context(), res.User.ID))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	var got User
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got != res.User {
		t.Errorf("got %+v, want %+v", got, res.User)
	}
}
