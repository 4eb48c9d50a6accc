package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
)

// Состояния сессии с точки зрения резолвера личности.
type IdentityState string

const (
	StateAnonymous           IdentityState = "anonymous"
	StateAuthenticating      IdentityState = "authenticating"
	StateNeedsPasswordChange IdentityState = "needs_password_change"
	StateReady               IdentityState = "ready"
)

// Identity — подтверждённый токеном действующий пользователь. Сервисы
// принимают его идентификатор явно, а не из глобального состояния.
type Identity struct {
	UserID string
	Role   models.UserRole
}

const (
	PathLogin          = "/"
	PathChangePassword = "/change-password"
	PathTeacherHome    = "/teacher"
	PathStudentHome    = "/student"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Resolve(ctx context.Context, userID, currentPath string) (*models.MeResponse, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	VerifyToken(token string) (*Identity, error)
}

type authService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) mintToken(user *models.User) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) VerifyToken(tokenString string) (*Identity, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid session token", ErrAuthorization)
	}

	return &Identity{
		UserID: claims.Subject,
		Role:   models.UserRole(claims.Role),
	}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("role", user.Role).
		Msg("User logged in")

	return &models.LoginResponse{
		Token:      token,
		User:       user,
		RedirectTo: s.destinationFor(user, PathLogin),
	}, nil
}

// Resolve сопоставляет валидную сессию профилю и решает, куда вести
// пользователя. Несменённый пароль принудительно ведёт на смену пароля
// независимо от запрошенной страницы; иначе на страницу роли — но только
// со страниц входа и смены пароля, глубокую навигацию не перехватываем.
func (s *authService) Resolve(ctx context.Context, userID, currentPath string) (*models.MeResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		// Ошибка чтения профиля трактуется как неаутентифицированность:
		// восстановимое уведомление вместо падения навигации.
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user profile")
		return &models.MeResponse{State: string(StateAnonymous)}, fmt.Errorf("%w: could not fetch profile", ErrAuthorization)
	}
	if user == nil {
		return &models.MeResponse{State: string(StateAnonymous)}, ErrUserNotFound
	}

	state := StateReady
	if !user.PasswordChanged {
		state = StateNeedsPasswordChange
	}

	return &models.MeResponse{
		User:       user,
		State:      string(state),
		RedirectTo: s.destinationFor(user, currentPath),
	}, nil
}

func (s *authService) destinationFor(user *models.User, currentPath string) string {
	if !user.PasswordChanged {
		return PathChangePassword
	}

	if currentPath != PathLogin && currentPath != PathChangePassword {
		return ""
	}

	switch models.UserRole(user.Role) {
	case models.RoleTeacher:
		return PathTeacherHome
	case models.RoleStudent:
		return PathStudentHome
	default:
		return ""
	}
}

func (s *authService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: current and new passwords are required", ErrValidation)
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: new password must be at least 8 characters", ErrValidation)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	// Текущий пароль подтверждается повторной проверкой
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Пароль уже сменён; неудача с флагом логируется, но пользователю не
	// показывается.
	if err := s.userRepo.SetPasswordChanged(ctx, userID, true); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to update password_changed flag")
	}

	s.logger.Info().Str("user_id", userID).Msg("Password changed")
	return nil
}
