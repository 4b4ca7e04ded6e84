package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"clientvault/internal/model"
	"clientvault/pkg/apierror"
)

// AuthService issues and validates JWT token pairs against a users file
// on disk. Like everything else here, the filesystem is the database.
type AuthService struct {
	usersFile     string
	jwtSecret     []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	mu            sync.RWMutex
	usersByEmail  map[string]model.User
	usersByID     map[string]model.User
	refreshTokens map[string]string
}

func NewAuthService(usersFile string, jwtSecret string, accessTTL time.Duration, refreshTTL time.Duration, adminEmail string, adminPassword string) (*AuthService, error) {
	service := &AuthService{
		usersFile:     usersFile,
		jwtSecret:     []byte(jwtSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		usersByEmail:  map[string]model.User{},
		usersByID:     map[string]model.User{},
		refreshTokens: map[string]string{},
	}

	if err := service.loadUsers(); err != nil {
		return nil, err
	}

	if len(service.usersByEmail) == 0 {
		if err := service.seedAdmin(adminEmail, adminPassword); err != nil {
			return nil, err
		}
	}

	return service, nil
}

func (s *AuthService) Login(email string, password string) (model.TokenPair, error) {
	s.mu.RLock()
	user, exists := s.usersByEmail[strings.ToLower(strings.TrimSpace(email))]
	s.mu.RUnlock()
	if !exists {
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "invalid credentials", "", http.StatusUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "invalid credentials", "", http.StatusUnauthorized)
	}

	return s.issueTokenPair(user)
}

func (s *AuthService) Register(req model.RegisterRequest) (model.AuthUser, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	role := strings.ToLower(strings.TrimSpace(req.Role))

	if email == "" || password == "" {
		return model.AuthUser{}, apierror.New("BAD_REQUEST", "email and password are required", "", http.StatusBadRequest)
	}
	if role == "" {
		role = model.RoleClient
	}
	if role != model.RoleAdmin && role != model.RoleClient {
		return model.AuthUser{}, apierror.New("BAD_REQUEST", "invalid role", role, http.StatusBadRequest)
	}
	if role == model.RoleClient && strings.TrimSpace(req.Client) == "" {
		return model.AuthUser{}, apierror.New("BAD_REQUEST", "client role requires a client workspace", "client", http.StatusBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[email]; exists {
		return model.AuthUser{}, apierror.AlreadyExists("email already registered", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return model.AuthUser{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Client:       strings.TrimSpace(req.Client),
		Capability:   req.Capability,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.usersByEmail[email] = user
	s.usersByID[user.ID] = user

	if err := s.saveUsersLocked(); err != nil {
		return model.AuthUser{}, err
	}

	return model.AuthUser{ID: user.ID, Email: user.Email, Role: user.Role, Client: user.Client}, nil
}

func (s *AuthService) Refresh(refreshToken string) (model.TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken, "refresh")
	if err != nil {
		return model.TokenPair{}, err
	}

	s.mu.Lock()
	ownerID, exists := s.refreshTokens[refreshToken]
	if !exists || ownerID != claims.UserID {
		s.mu.Unlock()
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "refresh token is invalid", "", http.StatusUnauthorized)
	}
	delete(s.refreshTokens, refreshToken)
	user, userExists := s.usersByID[claims.UserID]
	s.mu.Unlock()

	if !userExists {
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "user not found", "", http.StatusUnauthorized)
	}

	return s.issueTokenPair(user)
}

func (s *AuthService) Logout(refreshToken string) {
	s.mu.Lock()
	delete(s.refreshTokens, refreshToken)
	s.mu.Unlock()
}

func (s *AuthService) ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.New("UNAUTHORIZED", "invalid token signing method", "", http.StatusUnauthorized)
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apierror.New("UNAUTHORIZED", "invalid token", "", http.StatusUnauthorized)
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.New("UNAUTHORIZED", "invalid token claims", "", http.StatusUnauthorized)
	}

	typ, _ := claimsMap["typ"].(string)
	if expectedType != "" && typ != expectedType {
		return nil, apierror.New("UNAUTHORIZED", "invalid token type", "", http.StatusUnauthorized)
	}

	claims := &model.AuthClaims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.Client, _ = claimsMap["client"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, apierror.New("UNAUTHORIZED", "invalid token subject", "", http.StatusUnauthorized)
	}

	return claims, nil
}

// GetUser returns the stored user for a validated claim subject; used to
// attach the capability descriptor, which is too large to carry in the
// token itself.
func (s *AuthService) GetUser(userID string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByID[userID]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}

	return user, nil
}

// PrincipalFor builds the core-facing principal for a claim subject.
func (s *AuthService) PrincipalFor(claims *model.AuthClaims) Principal {
	principal := Principal{Role: claims.Role, Client: claims.Client}
	if user, err := s.GetUser(claims.UserID); err == nil {
		principal.Capability = user.Capability
	}

	return principal
}

func (s *AuthService) issueTokenPair(user model.User) (model.TokenPair, error) {
	now := time.Now().UTC()

	accessToken, err := s.signToken(user, "access", now, s.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.signToken(user, "refresh", now, s.refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	s.mu.Lock()
	s.refreshTokens[refreshToken] = user.ID
	s.mu.Unlock()

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         model.AuthUser{ID: user.ID, Email: user.Email, Role: user.Role, Client: user.Client},
	}, nil
}

func (s *AuthService) signToken(user model.User, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":    user.ID,
		"email":  user.Email,
		"role":   user.Role,
		"client": user.Client,
		"typ":    tokenType,
		"jti":    uuid.NewString(),
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}

	return signed, nil
}

func (s *AuthService) loadUsers() error {
	data, err := os.ReadFile(s.usersFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read users file %q: %w", s.usersFile, err)
	}

	if len(data) == 0 {
		return nil
	}

	var users []model.User
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("parse users file %q: %w", s.usersFile, err)
	}

	for _, user := range users {
		s.usersByEmail[strings.ToLower(user.Email)] = user
		s.usersByID[user.ID] = user
	}

	return nil
}

func (s *AuthService) seedAdmin(email string, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = "admin@localhost"
	}
	if strings.TrimSpace(password) == "" {
		password = "admin123"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByEmail[email] = admin
	s.usersByID[admin.ID] = admin

	return s.saveUsersLocked()
}

func (s *AuthService) saveUsersLocked() error {
	users := make([]model.User, 0, len(s.usersByID))
	for _, user := range s.usersByID {
		users = append(users, user)
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.usersFile), 0o755); err != nil {
		return fmt.Errorf("prepare users directory: %w", err)
	}

	return os.WriteFile(s.usersFile, data, 0o600)
}
