package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	CookieName    = "gridtip_session"
	SessionExpiry = 24 * time.Hour
	adminSubject  = "admin"
	issuer        = "gridtip"
)

// ErrInvalidCredentials is returned when the admin password does not match
var ErrInvalidCredentials = errors.New("invalid credentials")

// F1-themed words for password generation
var passwordWords = []string{
	"apex", "chicane", "pitlane", "slipstream", "paddock",
	"podium", "grid", "kerb", "drs", "undercut",
	"overcut", "hairpin", "parcferme", "pole", "sector",
	"tyre", "wing", "marshal", "safetycar",
}

// Claims are the JWT claims of an admin session
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth handles admin authentication with a bcrypt-hashed password and HS256 session tokens
type Auth struct {
	hash    []byte
	key     []byte
	revoked map[string]time.Time // token id -> expiry
	mu      sync.RWMutex
	now     func() time.Time
}

// New creates a new Auth instance with the given password and signing key.
// An empty key gets a random one, which invalidates sessions on restart.
func New(password string, key []byte) (*Auth, error) {
	return NewWithCost(password, key, bcrypt.DefaultCost)
}

// NewWithCost is New with an explicit bcrypt cost
func NewWithCost(password string, key []byte, cost int) (*Auth, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}
	return &Auth{
		hash:    hash,
		key:     key,
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}, nil
}

// SetClock replaces the time source (for testing)
func (a *Auth) SetClock(now func() time.Time) {
	a.now = now
}

// GeneratePassword creates a random 3-word password
func GeneratePassword() string {
	words := make([]string, 3)
	for i := range words {
		idx := randomInt(len(passwordWords))
		words[i] = passwordWords[idx]
	}
	return strings.Join(words, "-")
}

// Login validates the password and returns a signed session token if valid
func (a *Auth) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := a.now()
	claims := &Claims{
		Role: adminSubject,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   adminSubject,
			ID:        generateTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionExpiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
}

// parse verifies signature, expiry and issuer of a token
func (a *Auth) parse(token string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid || claims.Role != adminSubject {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Logout revokes a session token until it would have expired
func (a *Auth) Logout(token string) {
	claims, err := a.parse(token)
	if err != nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked[claims.ID] = claims.ExpiresAt.Time
	now := a.now()
	for id, exp := range a.revoked {
		if now.After(exp) {
			delete(a.revoked, id)
		}
	}
}

// ValidateSession checks if a session token is valid
func (a *Auth) ValidateSession(token string) bool {
	claims, err := a.parse(token)
	if err != nil {
		return false
	}
	a.mu.RLock()
	_, revoked := a.revoked[claims.ID]
	a.mu.RUnlock()
	return !revoked
}

// TokenFromRequest returns the session token from the cookie or the bearer header
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// GetSessionFromRequest extracts and validates the session from a cookie or bearer header
func (a *Auth) GetSessionFromRequest(r *http.Request) bool {
	token := TokenFromRequest(r)
	if token == "" {
		return false
	}
	return a.ValidateSession(token)
}

// RequireAuthAPI middleware for API endpoints (returns 401)
func (a *Auth) RequireAuthAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.GetSessionFromRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Unauthorized - please log in"}`))
	})
}

// SetSessionCookie sets the session cookie on the response
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionExpiry.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateTokenID creates a random token id
func generateTokenID() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// randomInt returns a random int in [0, max)
func randomInt(max int) int {
	bytes := make([]byte, 1)
	rand.Read(bytes)
	return int(bytes[0]) % max
}
