package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type userStore struct {
	mu    sync.RWMutex
	path  string
	users map[string]*User
}

func newUserStore(path string) (*userStore, error) {
	us := &userStore{path: path, users: map[string]*User{}}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if b, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(b, &us.users); err != nil {
			log.Printf("AUTH: unreadable user file %s, starting empty: %v", path, err)
			us.users = map[string]*User{}
		}
	}
	return us, nil
}

func (s *userStore) save() error {
	s.mu.RLock()
	b, err := json.MarshalIndent(s.users, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *userStore) get(username string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(username)]
	return u, ok
}

// add inserts u unless the username is taken.
func (s *userStore) add(u *User) (bool, error) {
	key := strings.ToLower(u.Username)
	s.mu.Lock()
	if _, taken := s.users[key]; taken {
		s.mu.Unlock()
		return false, nil
	}
	s.users[key] = u
	s.mu.Unlock()
	return true, s.save()
}

func (s *userStore) remove(username string) {
	s.mu.Lock()
	delete(s.users, strings.ToLower(username))
	s.mu.Unlock()
}

type Options struct {
	Issuer   string
	TokenTTL time.Duration
	// OnRegister runs after a user is stored, e.g. to create their profile.
	// A failure rolls the registration back.
	OnRegister func(userID, username string) error
}

type Auth struct {
	users  *userStore
	jwtKey []byte
	opts   Options
	now    func() time.Time
}

func NewAuth(dataDir string, opts Options) (*Auth, error) {
	users, err := newUserStore(filepath.Join(dataDir, "users.json"))
	if err != nil {
		return nil, err
	}
	keyPath := filepath.Join(dataDir, "jwt.key")
	key, err := os.ReadFile(keyPath)
	if err != nil || len(key) < 32 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate jwt key: %w", err)
		}
		if err := os.WriteFile(keyPath, key, 0o600); err != nil {
			return nil, fmt.Errorf("write jwt key: %w", err)
		}
	}
	if opts.Issuer == "" {
		opts.Issuer = "Questline"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &Auth{users: users, jwtKey: key, opts: opts, now: time.Now}, nil
}

type RegisterReq struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type RegisterResp struct {
	OK     bool   `json:"ok"`
	UserID string `json:"userId"`
}

var (
	ErrInvalidRegistration = errors.New("invalid username or password mismatch / too short")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// Register stores a new user and returns its id.
func (a *Auth) Register(req RegisterReq) (string, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Password) < 6 || req.Password != req.PasswordConfirm {
		return "", ErrInvalidRegistration
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	u := &User{ID: uuid.NewString(), Username: req.Username, PasswordHash: string(hash), CreatedAt: a.now()}
	added, err := a.users.add(u)
	if err != nil {
		return "", fmt.Errorf("save users: %w", err)
	}
	if !added {
		return "", ErrUsernameTaken
	}
	if a.opts.OnRegister != nil {
		if err := a.opts.OnRegister(u.ID, u.Username); err != nil {
			a.users.remove(u.Username)
			if serr := a.users.save(); serr != nil {
				log.Printf("AUTH: rollback of %s failed: %v", u.Username, serr)
			}
			return "", err
		}
	}
	log.Printf("AUTH: registered %s (ID: %s)", u.Username, u.ID)
	return u.ID, nil
}

func (a *Auth) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	id, err := a.Register(req)
	switch {
	case errors.Is(err, ErrInvalidRegistration):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrUsernameTaken):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		log.Printf("AUTH: register failed: %v", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RegisterResp{OK: true, UserID: id})
}

type LoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResp struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

// Login checks credentials and issues a signed token.
func (a *Auth) Login(req LoginReq) (LoginResp, error) {
	u, ok := a.users.get(strings.TrimSpace(req.Username))
	if !ok || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return LoginResp{}, ErrInvalidCredentials
	}
	signed, err := a.IssueToken(u.ID, u.Username)
	if err != nil {
		return LoginResp{}, err
	}
	return LoginResp{Token: signed, Username: u.Username, UserID: u.ID}, nil
}

func (a *Auth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	resp, err := a.Login(req)
	if errors.Is(err, ErrInvalidCredentials) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, "token failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (a *Auth) IssueToken(userID, username string) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"name": username,
		"iss":  a.opts.Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(a.opts.TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtKey)
}

// Identity is the authenticated caller.
type Identity struct {
	UserID   string
	Username string
}

func (a *Auth) ParseToken(tok string) (Identity, error) {
	if tok == "" {
		return Identity{}, errors.New("missing token")
	}
	t, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		return a.jwtKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.opts.Issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !t.Valid {
		return Identity{}, errors.New("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("bad claims")
	}
	sub, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	if sub == "" {
		return Identity{}, errors.New("bad claims")
	}
	return Identity{UserID: sub, Username: name}, nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// TokenFromRequest reads a bearer token, falling back to the token query
// parameter used by websocket clients.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// RequireAuth rejects requests without a valid token and stores the caller's
// identity in the request context.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.ParseToken(TokenFromRequest(r))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
