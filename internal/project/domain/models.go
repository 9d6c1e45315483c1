package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status tracks a project through its generation lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Project is an educational document project owned by a single user.
type Project struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID       string            `gorm:"not null;index" json:"user_id"`
	Title        string            `gorm:"not null" json:"title"`
	Status       Status            `gorm:"type:text;not null;default:'pending'" json:"status"`
	ErrorMessage string            `gorm:"not null;default:''" json:"error_message,omitempty"`
	CreditsUsed  int64             `gorm:"not null;default:0" json:"credits_used"`
	Options      datatypes.JSONMap `gorm:"type:text" json:"options"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Project) TableName() string { return "projects" }

// Version is one immutable generation output for a project. A project
// accumulates versions; the latest one is what the user sees.
type Version struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ProjectID      snowflake.ID `gorm:"not null;index" json:"project_id"`
	WorksheetHTML  string       `gorm:"column:worksheet_html;not null;default:''" json:"worksheet_html,omitempty"`
	LessonPlanHTML string       `gorm:"column:lesson_plan_html;not null;default:''" json:"lesson_plan_html,omitempty"`
	AnswerKeyHTML  string       `gorm:"column:answer_key_html;not null;default:''" json:"answer_key_html,omitempty"`
	Provider       string       `gorm:"not null;default:''" json:"provider"`
	Model          string       `gorm:"not null;default:''" json:"model"`
	Mode           string       `gorm:"not null;default:''" json:"mode"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Version) TableName() string { return "project_versions" }
