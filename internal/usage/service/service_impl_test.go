package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/usage/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRecordAndListByJob(t *testing.T) {
	svc := setupUsageService(t)
	ctx := context.Background()

	for _, kind := range []string{"worksheet", "answer_key"} {
		err := svc.Record(ctx, &usagedomain.Record{
			UserID:       "user-1",
			JobID:        "job-1",
			DocumentKind: kind,
			Provider:     "anthropic",
			Model:        "claude-3-5-haiku-latest",
			InputTokens:  1000,
			OutputTokens: 500,
			Credits:      1,
		})
		if err != nil {
			t.Fatalf("record %s: %v", kind, err)
		}
	}

	records, err := svc.ListByJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("list by job: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].DocumentKind != "worksheet" || records[1].DocumentKind != "answer_key" {
		t.Fatalf("unexpected order: %+v", records)
	}
}

func TestTotalsByUser(t *testing.T) {
	svc := setupUsageService(t)
	ctx := context.Background()

	inputs := []int64{1000, 2000, 3000}
	for _, in := range inputs {
		err := svc.Record(ctx, &usagedomain.Record{
			UserID:       "user-1",
			JobID:        "job-1",
			DocumentKind: "worksheet",
			Provider:     "ollama",
			Model:        "llama3.2",
			InputTokens:  in,
			OutputTokens: in / 2,
			Credits:      2,
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	totals, err := svc.TotalsByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.InputTokens != 6000 || totals.OutputTokens != 3000 || totals.Credits != 6 || totals.Records != 3 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	empty, err := svc.TotalsByUser(ctx, "user-none")
	if err != nil {
		t.Fatalf("totals empty: %v", err)
	}
	if empty.Records != 0 || empty.Credits != 0 {
		t.Fatalf("expected zero totals, got %+v", empty)
	}
}

func TestRecordValidation(t *testing.T) {
	svc := setupUsageService(t)

	if err := svc.Record(context.Background(), &usagedomain.Record{UserID: " "}); !errors.Is(err, usagedomain.ErrInvalidUser) {
		t.Fatalf("expected invalid user, got %v", err)
	}
}

func setupUsageService(t *testing.T) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usage.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS usage_records (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			job_id TEXT NOT NULL,
			document_kind TEXT NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			input_tokens BIGINT NOT NULL DEFAULT 0,
			output_tokens BIGINT NOT NULL DEFAULT 0,
			credits BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	).Error; err != nil {
		t.Fatalf("create usage_records: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new snowflake node: %v", err)
	}
	return &Service{
		db:    db,
		log:   zap.NewNop(),
		genID: node,
	}
}
