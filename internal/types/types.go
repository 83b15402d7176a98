package types

import (
	"encoding/json"
	"time"
)

// Role is the access level attached to a user account.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRecruiter, RoleCandidate:
		return true
	}
	return false
}

// User is an account that can authenticate against the API.
type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Job is a posted position. Requirements holds the raw stored
// requirements document of shape {"scores": {key: {min, important}}};
// it is parsed into a typed requirement set at the screening boundary.
type Job struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	Department   string          `json:"department,omitempty"`
	Location     string          `json:"location,omitempty"`
	PostedBy     *int64          `json:"posted_by,omitempty"`
	Requirements json.RawMessage `json:"requirements,omitempty"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Application is one candidate's submission for a job. Applications are
// linked to user accounts only via a case-insensitive email match, not a
// foreign key.
type Application struct {
	ID          int64     `json:"id"`
	JobID       int64     `json:"job_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	ResumeURL   string    `json:"resume_url,omitempty"`
	CoverLetter string    `json:"cover_letter,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Profile is a candidate's self-maintained score snapshot plus free-form
// extra data, keyed by user account.
type Profile struct {
	UserID    int64           `json:"user_id"`
	Scores    json.RawMessage `json:"scores"`
	Extra     json.RawMessage `json:"extra"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Evaluation is a recruiter's manual score for one application.
type Evaluation struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	StageID       *int64    `json:"stage_id,omitempty"`
	Score         float64   `json:"score"`
	Comments      string    `json:"comments,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Interview is a scheduled meeting for an application.
type Interview struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Location      string    `json:"location,omitempty"`
	Mode          string    `json:"mode,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Offer is an extended job offer for an application.
type Offer struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	StartDate     time.Time `json:"start_date"`
	Position      string    `json:"position,omitempty"`
	Salary        string    `json:"salary,omitempty"`
	Content       string    `json:"content,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Result is the final hire/reject outcome recorded for an application.
// List and lookup responses carry the joined applicant and job fields.
type Result struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	Outcome       string    `json:"result"`
	Notes         string    `json:"notes,omitempty"`
	FullName      string    `json:"full_name,omitempty"`
	Email         string    `json:"email,omitempty"`
	JobID         int64     `json:"job_id,omitempty"`
	JobTitle      string    `json:"job_title,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Process is a named hiring process made up of ordered stages.
type Process struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Stages    []Stage   `json:"stages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stage is one step of a hiring process. Evaluations may reference a
// stage to record which step the score belongs to.
type Stage struct {
	ID        int64  `json:"id"`
	ProcessID int64  `json:"process_id"`
	Name      string `json:"name"`
	Order     int    `json:"stage_order"`
}

// Notification is a best-effort in-app message for a user.
type Notification struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message,omitempty"`
	Type        string    `json:"type,omitempty"`
	RelatedType string    `json:"related_type,omitempty"`
	RelatedID   *int64    `json:"related_id,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// CriterionDef is a reusable criterion definition from the shared
// catalog. Jobs may reference catalog keys in their requirements but are
// not constrained to them.
type CriterionDef struct {
	ID     int64   `json:"id"`
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Step   float64 `json:"step"`
	Active bool    `json:"active"`
}
