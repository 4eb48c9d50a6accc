package models

import "time"

// Data Transfer Objects

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token      string `json:"token"`
	User       *User  `json:"user"`
	RedirectTo string `json:"redirect_to"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type MeResponse struct {
	User       *User  `json:"user"`
	State      string `json:"state"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

type CreateAssignmentRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Category    string    `json:"category"`
	Year        int       `json:"year"`
}

type GradeSubmissionRequest struct {
	Grade    *int   `json:"grade"`
	Feedback string `json:"feedback"`
}

type SubmissionStatusResponse struct {
	Submission *Submission `json:"submission"`
	CanSubmit  bool        `json:"can_submit"`
	CanDelete  bool        `json:"can_delete"`
	Overdue    bool        `json:"overdue"`
}

type AssignmentsResponse struct {
	Assignments []AssignmentWithTeacher `json:"assignments"`
	Total       int                     `json:"total"`
	Page        int                     `json:"page"`
	Limit       int                     `json:"limit"`
}

type SubmissionsResponse struct {
	Submissions []SubmissionWithDetails `json:"submissions"`
	Total       int                     `json:"total"`
	Page        int                     `json:"page"`
	Limit       int                     `json:"limit"`
}
