package models

import (
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID              string    `json:"id" db:"id"`
	Email           string    `json:"email" db:"email"`
	PasswordHash    string    `json:"-" db:"password_hash"`
	Role            string    `json:"role" db:"role"` // student, teacher
	Name            *string   `json:"name,omitempty" db:"name"`
	Year            *int      `json:"year,omitempty" db:"year"` // 1-5 для курсов, 6 для выпускного
	PasswordChanged bool      `json:"password_changed" db:"password_changed"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
)

func (r UserRole) String() string {
	return string(r)
}

func IsValidUserRole(role string) bool {
	switch role {
	case "student", "teacher":
		return true
	default:
		return false
	}
}

// DisplayName возвращает имя для отображения: профиль, иначе локальная
// часть email, иначе усечённый идентификатор.
func (u *User) DisplayName() string {
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		return strings.TrimSpace(*u.Name)
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	id := u.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("Student %s", id)
}
