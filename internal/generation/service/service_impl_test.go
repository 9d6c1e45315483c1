package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/config"
	creditdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/credit/domain"
	creditservice "github.com/theronnieguidry/teachers-assistant-sub004/internal/credit/service"
	generationdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/generation/domain"
	projectdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/project/domain"
	projectservice "github.com/theronnieguidry/teachers-assistant-sub004/internal/project/service"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/provider"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// scriptedGenerator plays back canned results per call and records the
// prompts it was asked for.
type scriptedGenerator struct {
	results []scriptedResult
	prompts []string
	calls   int
}

type scriptedResult struct {
	content      string
	inputTokens  int64
	outputTokens int64
	err          error
}

func (g *scriptedGenerator) GenerateContent(ctx context.Context, prompt string, cfg provider.Config) (*provider.Result, error) {
	g.prompts = append(g.prompts, prompt)
	if g.calls >= len(g.results) {
		return nil, fmt.Errorf("unexpected call %d", g.calls)
	}
	r := g.results[g.calls]
	g.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &provider.Result{
		Content:      r.content,
		InputTokens:  r.inputTokens,
		OutputTokens: r.outputTokens,
	}, nil
}

type pipelineHarness struct {
	svc      *Service
	db       *gorm.DB
	credits  creditdomain.Service
	projects projectdomain.Service
	backend  *scriptedGenerator
}

func TestRunHappyPathPartialRefund(t *testing.T) {
	h := setupPipeline(t, []scriptedResult{
		{content: "<html><body>worksheet</body></html>", inputTokens: 4000, outputTokens: 500},
		{content: "<html><body>answers</body></html>", inputTokens: 4000, outputTokens: 500},
	})
	ctx := context.Background()
	grantCredits(t, h, "user-1", 10)
	project := mustCreateProject(t, h, "user-1")

	// Reserved: base 2 + 1 for 15 questions + 2 answer key = 5.
	// Actual: 8000 input + 1000 output tokens = 3 credits.
	req := generationdomain.Request{
		ProjectID: project.ID,
		UserID:    "user-1",
		Title:     "Fractions",
		Documents: []generationdomain.DocumentKind{generationdomain.DocumentWorksheet, generationdomain.DocumentAnswerKey},
		Options:   generationdomain.Options{QuestionCount: 15, IncludeAnswerKey: true},
	}
	var events []generationdomain.Event
	outcome, err := h.svc.Run(ctx, req, func(e generationdomain.Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.ReservedCredits != 5 || outcome.ActualCredits != 3 || outcome.RefundedCredits != 2 {
		t.Fatalf("unexpected credit outcome: %+v", outcome)
	}

	account, err := h.credits.GetBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if account.Balance != 7 {
		t.Fatalf("expected balance 7 after partial refund, got %d", account.Balance)
	}
	if account.LifetimeUsed != 3 {
		t.Fatalf("expected lifetime_used 3, got %d", account.LifetimeUsed)
	}

	var reservation, refund int
	for _, tx := range mustListTransactions(t, h, "user-1") {
		switch tx.Kind {
		case creditdomain.TransactionKindReservation:
			reservation++
			if tx.Amount != -5 {
				t.Fatalf("expected reservation -5, got %d", tx.Amount)
			}
		case creditdomain.TransactionKindRefund:
			refund++
			if tx.Amount != 2 {
				t.Fatalf("expected refund +2, got %d", tx.Amount)
			}
		}
	}
	if reservation != 1 || refund != 1 {
		t.Fatalf("expected one reservation and one refund, got %d/%d", reservation, refund)
	}

	got, err := h.projects.Get(ctx, "user-1", project.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.Status != projectdomain.StatusCompleted || got.CreditsUsed != 3 {
		t.Fatalf("unexpected project state: %+v", got)
	}

	version, err := h.projects.LatestVersion(ctx, project.ID)
	if err != nil {
		t.Fatalf("latest version: %v", err)
	}
	if !strings.Contains(version.WorksheetHTML, "worksheet") || !strings.Contains(version.AnswerKeyHTML, "answers") {
		t.Fatalf("unexpected version bodies: %+v", version)
	}
	if version.LessonPlanHTML != "" {
		t.Fatalf("lesson plan was not requested, got %q", version.LessonPlanHTML)
	}

	last := events[len(events)-1]
	if last.Type != generationdomain.EventTypeComplete || last.Progress != 100 {
		t.Fatalf("expected terminal complete event, got %+v", last)
	}
}

func TestRunInsufficientCredits(t *testing.T) {
	h := setupPipeline(t, nil)
	ctx := context.Background()
	grantCredits(t, h, "user-1", 2)
	project := mustCreateProject(t, h, "user-1")

	req := generationdomain.Request{
		ProjectID: project.ID,
		UserID:    "user-1",
		Title:     "Fractions",
		Documents: []generationdomain.DocumentKind{generationdomain.DocumentWorksheet, generationdomain.DocumentAnswerKey},
		Options:   generationdomain.Options{QuestionCount: 15, IncludeAnswerKey: true},
	}
	var events []generationdomain.Event
	_, err := h.svc.Run(ctx, req, func(e generationdomain.Event) { events = append(events, e) })
	if !errors.Is(err, generationdomain.ErrInsufficientCredits) {
		t.Fatalf("expected insufficient credits, got %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("no events should be emitted before admission, got %+v", events)
	}

	account, err := h.credits.GetBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if account.Balance != 2 {
		t.Fatalf("balance must be untouched, got %d", account.Balance)
	}
	for _, tx := range mustListTransactions(t, h, "user-1") {
		if tx.Kind != creditdomain.TransactionKindGrant {
			t.Fatalf("no ledger entry expected beyond the grant, got %+v", tx)
		}
	}

	got, _ := h.projects.Get(ctx, "user-1", project.ID)
	if got.Status != projectdomain.StatusPending {
		t.Fatalf("project must stay pending, got %s", got.Status)
	}
}

func TestRunRefundOnImmediateProviderFailure(t *testing.T) {
	h := setupPipeline(t, []scriptedResult{
		{err: errors.New("provider exploded")},
	})
	assertFullRefund(t, h, "generate worksheet")
}

func TestRunRefundOnMidLoopProviderFailure(t *testing.T) {
	h := setupPipeline(t, []scriptedResult{
		{content: "<html><body>worksheet</body></html>", inputTokens: 100, outputTokens: 100},
		{err: errors.New("provider exploded")},
	})
	assertFullRefund(t, h, "generate answer_key")
}

func TestRunRefundOnPersistFailure(t *testing.T) {
	h := setupPipeline(t, []scriptedResult{
		{content: "<html><body>worksheet</body></html>", inputTokens: 100, outputTokens: 100},
		{content: "<html><body>answers</body></html>", inputTokens: 100, outputTokens: 100},
	})
	if err := h.db.Exec(`DROP TABLE project_versions`).Error; err != nil {
		t.Fatalf("drop table: %v", err)
	}
	assertFullRefund(t, h, "persist version")
}

// assertFullRefund runs a worksheet+answer_key request expected to
// fail mid-pipeline and verifies the balance is exactly restored.
func assertFullRefund(t *testing.T, h *pipelineHarness, wantInError string) {
	t.Helper()
	ctx := context.Background()
	grantCredits(t, h, "user-1", 10)
	project := mustCreateProject(t, h, "user-1")

	req := generationdomain.Request{
		ProjectID: project.ID,
		UserID:    "user-1",
		Title:     "Fractions",
		Documents: []generationdomain.DocumentKind{generationdomain.DocumentWorksheet, generationdomain.DocumentAnswerKey},
		Options:   generationdomain.Options{QuestionCount: 15, IncludeAnswerKey: true},
	}
	var events []generationdomain.Event
	_, err := h.svc.Run(ctx, req, func(e generationdomain.Event) { events = append(events, e) })
	if err == nil {
		t.Fatal("expected run to fail")
	}
	if !strings.Contains(err.Error(), wantInError) {
		t.Fatalf("error %q does not mention %q", err, wantInError)
	}

	account, balErr := h.credits.GetBalance(ctx, "user-1")
	if balErr != nil {
		t.Fatalf("get balance: %v", balErr)
	}
	if account.Balance != 10 {
		t.Fatalf("expected full refund back to 10, got %d", account.Balance)
	}
	if account.LifetimeUsed != 0 {
		t.Fatalf("expected lifetime_used back to 0, got %d", account.LifetimeUsed)
	}

	got, _ := h.projects.Get(ctx, "user-1", project.ID)
	if got.Status != projectdomain.StatusFailed {
		t.Fatalf("expected failed status, got %s", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Fatal("expected a captured error message")
	}

	if len(events) == 0 {
		t.Fatal("expected a terminal error event")
	}
	last := events[len(events)-1]
	if last.Type != generationdomain.EventTypeError {
		t.Fatalf("expected last event to be error, got %+v", last)
	}
	terminal := 0
	for _, e := range events {
		if e.Type != generationdomain.EventTypeProgress {
			terminal++
		}
	}
	if terminal != 1 {
		t.Fatalf("exactly one terminal event expected, got %d", terminal)
	}
}

func TestRunProgressOrdering(t *testing.T) {
	h := setupPipeline(t, []scriptedResult{
		{content: "w", inputTokens: 100, outputTokens: 100},
		{content: "l", inputTokens: 100, outputTokens: 100},
		{content: "a", inputTokens: 100, outputTokens: 100},
	})
	ctx := context.Background()
	grantCredits(t, h, "user-1", 20)
	project := mustCreateProject(t, h, "user-1")

	req := generationdomain.Request{
		ProjectID: project.ID,
		UserID:    "user-1",
		Title:     "Fractions",
		Documents: []generationdomain.DocumentKind{
			generationdomain.DocumentAnswerKey,
			generationdomain.DocumentWorksheet,
			generationdomain.DocumentLessonPlan,
		},
		Options: generationdomain.Options{QuestionCount: 10, IncludeAnswerKey: true, IncludeLessonPlan: true},
	}
	var events []generationdomain.Event
	if _, err := h.svc.Run(ctx, req, func(e generationdomain.Event) { events = append(events, e) }); err != nil {
		t.Fatalf("run: %v", err)
	}

	wantSteps := []generationdomain.DocumentKind{
		generationdomain.DocumentWorksheet,
		generationdomain.DocumentLessonPlan,
		generationdomain.DocumentAnswerKey,
	}
	if len(events) != len(wantSteps)+1 {
		t.Fatalf("expected %d events, got %d", len(wantSteps)+1, len(events))
	}
	lastProgress := -1
	for i, step := range wantSteps {
		e := events[i]
		if e.Type != generationdomain.EventTypeProgress || e.Step != step {
			t.Fatalf("event %d: expected progress for %s, got %+v", i, step, e)
		}
		if e.Progress < lastProgress {
			t.Fatalf("progress decreased at event %d: %d < %d", i, e.Progress, lastProgress)
		}
		lastProgress = e.Progress
	}
	last := events[len(events)-1]
	if last.Type != generationdomain.EventTypeComplete || last.Progress != 100 || last.Result == nil {
		t.Fatalf("expected terminal complete at 100, got %+v", last)
	}

	// The answer key prompt must reference the generated worksheet.
	if len(h.backend.prompts) != 3 {
		t.Fatalf("expected 3 provider calls, got %d", len(h.backend.prompts))
	}
	if !strings.Contains(h.backend.prompts[2], "<p>w</p>") {
		t.Fatalf("answer key prompt does not carry the worksheet: %q", h.backend.prompts[2])
	}
}

func TestRunAbsorbsOverage(t *testing.T) {
	// Actual usage of 10 credits exceeds the reservation of 2; the
	// difference is absorbed, never billed.
	h := setupPipeline(t, []scriptedResult{
		{content: "w", inputTokens: 20000, outputTokens: 5000},
	})
	ctx := context.Background()
	grantCredits(t, h, "user-1", 10)
	project := mustCreateProject(t, h, "user-1")

	req := generationdomain.Request{
		ProjectID: project.ID,
		UserID:    "user-1",
		Title:     "Fractions",
		Documents: []generationdomain.DocumentKind{generationdomain.DocumentWorksheet},
		Options:   generationdomain.Options{QuestionCount: 10},
	}
	outcome, err := h.svc.Run(ctx, req, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.ReservedCredits != 2 || outcome.ActualCredits != 10 || outcome.RefundedCredits != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	account, err := h.credits.GetBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if account.Balance != 8 {
		t.Fatalf("only the reservation should be charged, got balance %d", account.Balance)
	}
	for _, tx := range mustListTransactions(t, h, "user-1") {
		if tx.Kind == creditdomain.TransactionKindRefund {
			t.Fatalf("no refund entry expected on overage, got %+v", tx)
		}
	}
}

func TestRunReservesExactlyTheEstimate(t *testing.T) {
	h := setupPipeline(t, []scriptedResult{
		{content: "w", inputTokens: 100, outputTokens: 100},
	})
	ctx := context.Background()
	grantCredits(t, h, "user-1", 50)
	project := mustCreateProject(t, h, "user-1")

	opts := generationdomain.Options{QuestionCount: 25, PremiumMode: true, VisualRichness: generationdomain.VisualHigh}
	estimate := h.svc.EstimateCost(opts)

	req := generationdomain.Request{
		ProjectID: project.ID,
		UserID:    "user-1",
		Title:     "Fractions",
		Documents: []generationdomain.DocumentKind{generationdomain.DocumentWorksheet},
		Options:   opts,
	}
	outcome, err := h.svc.Run(ctx, req, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.ReservedCredits != estimate.Expected {
		t.Fatalf("admission reserved %d, estimate said %d", outcome.ReservedCredits, estimate.Expected)
	}
	for _, tx := range mustListTransactions(t, h, "user-1") {
		if tx.Kind == creditdomain.TransactionKindReservation && tx.Amount != -estimate.Expected {
			t.Fatalf("reservation entry %d does not match estimate %d", tx.Amount, estimate.Expected)
		}
	}
}

func TestRunValidation(t *testing.T) {
	h := setupPipeline(t, nil)
	ctx := context.Background()

	_, err := h.svc.Run(ctx, generationdomain.Request{UserID: "user-1"}, nil)
	if !errors.Is(err, generationdomain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}

	_, err = h.svc.Run(ctx, generationdomain.Request{ProjectID: 1, UserID: "user-1"}, nil)
	if !errors.Is(err, generationdomain.ErrNoDocuments) {
		t.Fatalf("expected no documents error, got %v", err)
	}
}

func setupPipeline(t *testing.T, results []scriptedResult) *pipelineHarness {
	t.Helper()
	db := setupPipelineDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new snowflake node: %v", err)
	}

	credits := creditservice.NewService(creditservice.ServiceParam{DB: db, Log: zap.NewNop(), GenID: node})
	projects := projectservice.NewService(projectservice.ServiceParam{DB: db, Log: zap.NewNop(), GenID: node})

	backend := &scriptedGenerator{results: results}
	registry := provider.NewRegistry()
	registry.Register("fake", backend)

	svc := &Service{
		log:       zap.NewNop(),
		cfg:       config.Config{DefaultProvider: "fake", DefaultModel: "fake-model"},
		credits:   credits,
		projects:  projects,
		providers: registry,
	}
	return &pipelineHarness{
		svc:      svc,
		db:       db,
		credits:  credits,
		projects: projects,
		backend:  backend,
	}
}

func setupPipelineDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS credit_accounts (
			user_id TEXT PRIMARY KEY,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			lifetime_granted BIGINT NOT NULL DEFAULT 0,
			lifetime_used BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS credit_transactions (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			amount BIGINT NOT NULL,
			kind TEXT NOT NULL,
			job_id TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			metadata TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			error_message TEXT NOT NULL DEFAULT '',
			credits_used BIGINT NOT NULL DEFAULT 0,
			options TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS project_versions (
			id BIGINT PRIMARY KEY,
			project_id BIGINT NOT NULL,
			worksheet_html TEXT NOT NULL DEFAULT '',
			lesson_plan_html TEXT NOT NULL DEFAULT '',
			answer_key_html TEXT NOT NULL DEFAULT '',
			provider TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func grantCredits(t *testing.T, h *pipelineHarness, userID string, amount int64) {
	t.Helper()
	if err := h.credits.Grant(context.Background(), userID, amount, "test grant"); err != nil {
		t.Fatalf("grant: %v", err)
	}
}

func mustCreateProject(t *testing.T, h *pipelineHarness, userID string) *projectdomain.Project {
	t.Helper()
	project, err := h.projects.Create(context.Background(), userID, "Fractions", nil)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func mustListTransactions(t *testing.T, h *pipelineHarness, userID string) []creditdomain.Transaction {
	t.Helper()
	transactions, err := h.credits.ListTransactions(context.Background(), userID, 50)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	return transactions
}
