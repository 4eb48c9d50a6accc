package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/RubachokBoss/assignment-portal/internal/models"
)

func newTestAuthService(userRepo *mockUserRepo) AuthService {
	return NewAuthService(userRepo, "test-secret", time.Hour, zerolog.Nop())
}

func seedUser(repo *mockUserRepo, id, email, password, role string, passwordChanged bool) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &models.User{
		ID:              id,
		Email:           email,
		PasswordHash:    string(hash),
		Role:            role,
		PasswordChanged: passwordChanged,
	}
	repo.users[id] = u
	return u
}

func TestLogin(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := newTestAuthService(userRepo)

	seedUser(userRepo, "u1", "alice@uni.edu", "correct-horse", string(models.RoleStudent), true)

	resp, err := svc.Login(context.Background(), "alice@uni.edu", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token == "" {
		t.Error("Token is empty")
	}
	if resp.RedirectTo != PathStudentHome {
		t.Errorf("RedirectTo = %q, want %q", resp.RedirectTo, PathStudentHome)
	}

	identity, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if identity.UserID != "u1" || identity.Role != models.RoleStudent {
		t.Errorf("identity = %+v, want u1/student", identity)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := newTestAuthService(userRepo)

	seedUser(userRepo, "u1", "alice@uni.edu", "correct-horse", string(models.RoleStudent), true)

	if _, err := svc.Login(context.Background(), "alice@uni.edu", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@uni.edu", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("empty credentials error = %v, want ErrValidation", err)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(newMockUserRepo())

	if _, err := svc.VerifyToken("not-a-token"); !errors.Is(err, ErrAuthorization) {
		t.Errorf("VerifyToken(garbage) error = %v, want ErrAuthorization", err)
	}

	other := NewAuthService(newMockUserRepo(), "different-secret", time.Hour, zerolog.Nop())
	userRepo := newMockUserRepo()
	seedUser(userRepo, "u1", "a@b.c", "pw", string(models.RoleStudent), true)
	resp, err := newTestAuthService(userRepo).Login(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if _, err := other.VerifyToken(resp.Token); !errors.Is(err, ErrAuthorization) {
		t.Errorf("VerifyToken with wrong secret error = %v, want ErrAuthorization", err)
	}
}

func TestResolveRouting(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := newTestAuthService(userRepo)

	seedUser(userRepo, "t1", "prof@uni.edu", "pw", string(models.RoleTeacher), true)
	seedUser(userRepo, "s1", "kid@uni.edu", "pw", string(models.RoleStudent), true)
	seedUser(userRepo, "fresh", "new@uni.edu", "pw", string(models.RoleStudent), false)

	tests := []struct {
		name        string
		userID      string
		currentPath string
		wantState   string
		wantRedir   string
	}{
		{"teacher from login", "t1", PathLogin, string(StateReady), PathTeacherHome},
		{"student from login", "s1", PathLogin, string(StateReady), PathStudentHome},
		{"student from change password", "s1", PathChangePassword, string(StateReady), PathStudentHome},
		// Глубокую навигацию не перехватываем
		{"teacher deep link", "t1", "/teacher/assignments/42", string(StateReady), ""},
		{"student deep link", "s1", "/student", string(StateReady), ""},
		// Несмененный пароль перекрывает все остальное
		{"forced password change from login", "fresh", PathLogin, string(StateNeedsPasswordChange), PathChangePassword},
		{"forced password change from deep link", "fresh", "/student", string(StateNeedsPasswordChange), PathChangePassword},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := svc.Resolve(context.Background(), tc.userID, tc.currentPath)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if resp.State != tc.wantState {
				t.Errorf("State = %q, want %q", resp.State, tc.wantState)
			}
			if resp.RedirectTo != tc.wantRedir {
				t.Errorf("RedirectTo = %q, want %q", resp.RedirectTo, tc.wantRedir)
			}
		})
	}
}

func TestResolveProfileFetchFailure(t *testing.T) {
	userRepo := newMockUserRepo()
	userRepo.getByIDErr = errors.New("database unavailable")
	svc := newTestAuthService(userRepo)

	// Ошибка чтения профиля дает анонимное состояние, а не падение
	resp, err := svc.Resolve(context.Background(), "u1", PathLogin)
	if !errors.Is(err, ErrAuthorization) {
		t.Fatalf("Resolve() error = %v, want ErrAuthorization", err)
	}
	if resp == nil || resp.State != string(StateAnonymous) {
		t.Errorf("State = %v, want anonymous", resp)
	}
}

func TestResolveUnknownUser(t *testing.T) {
	svc := newTestAuthService(newMockUserRepo())

	resp, err := svc.Resolve(context.Background(), "ghost", PathLogin)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Resolve() error = %v, want ErrUserNotFound", err)
	}
	if resp == nil || resp.State != string(StateAnonymous) {
		t.Errorf("State = %v, want anonymous", resp)
	}
}

func TestChangePassword(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := newTestAuthService(userRepo)

	seedUser(userRepo, "u1", "alice@uni.edu", "old-password", string(models.RoleStudent), false)

	if err := svc.ChangePassword(context.Background(), "u1", "old-password", "new-password-1"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if !userRepo.users["u1"].PasswordChanged {
		t.Error("PasswordChanged flag not set")
	}
	if _, err := svc.Login(context.Background(), "alice@uni.edu", "new-password-1"); err != nil {
		t.Errorf("Login with new password error = %v", err)
	}
	if _, err := svc.Login(context.Background(), "alice@uni.edu", "old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login with old password error = %v, want ErrInvalidCredentials", err)
	}
}

func TestChangePasswordValidation(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := newTestAuthService(userRepo)

	seedUser(userRepo, "u1", "alice@uni.edu", "old-password", string(models.RoleStudent), false)

	if err := svc.ChangePassword(context.Background(), "u1", "wrong", "new-password-1"); !errors.Is(err, ErrValidation) {
		t.Errorf("wrong current password error = %v, want ErrValidation", err)
	}
	if err := svc.ChangePassword(context.Background(), "u1", "old-password", "short"); !errors.Is(err, ErrValidation) {
		t.Errorf("short new password error = %v, want ErrValidation", err)
	}
	if err := svc.ChangePassword(context.Background(), "u1", "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("empty passwords error = %v, want ErrValidation", err)
	}
}
