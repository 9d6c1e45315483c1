// Package domain contains persistence models for AI token usage.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Record stores the token spend of a single document generation call.
type Record struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID       string       `gorm:"not null" json:"user_id"`
	JobID        string       `gorm:"not null" json:"job_id"`
	DocumentKind string       `gorm:"type:text;not null" json:"document_kind"`
	Provider     string       `gorm:"type:text;not null" json:"provider"`
	Model        string       `gorm:"type:text;not null" json:"model"`
	InputTokens  int64        `gorm:"not null;default:0" json:"input_tokens"`
	OutputTokens int64        `gorm:"not null;default:0" json:"output_tokens"`
	Credits      int64        `gorm:"not null;default:0" json:"credits"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "usage_records" }

// Totals aggregates a user's token spend across all jobs.
type Totals struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	Credits      int64 `json:"credits"`
	Records      int64 `json:"records"`
}
