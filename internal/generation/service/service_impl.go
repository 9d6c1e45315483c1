package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/config"
	creditdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/credit/domain"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/events"
	generationdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/generation/domain"
	obscontext "github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/context"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/logger"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/metrics"
	projectdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/project/domain"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/provider"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/readiness"
	usagedomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultMaxTokens = 4096

type ServiceParam struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	Credits   creditdomain.Service
	Projects  projectdomain.Service
	Usage     usagedomain.Service
	Providers *provider.Registry
	Readiness *readiness.Manager
	Outbox    *events.Outbox
	Metrics   *metrics.GenerationMetrics
}

type Service struct {
	log *zap.Logger
	cfg config.Config

	credits   creditdomain.Service
	projects  projectdomain.Service
	usage     usagedomain.Service
	providers *provider.Registry
	readiness *readiness.Manager
	outbox    *events.Outbox
	metrics   *metrics.GenerationMetrics
}

func NewService(p ServiceParam) generationdomain.Service {
	return &Service{
		log: p.Log.Named("generation.service"),
		cfg: p.Config,

		credits:   p.Credits,
		projects:  p.Projects,
		usage:     p.Usage,
		providers: p.Providers,
		readiness: p.Readiness,
		outbox:    p.Outbox,
		metrics:   p.Metrics,
	}
}

func (s *Service) EstimateCost(opts generationdomain.Options) generationdomain.Estimate {
	return generationdomain.EstimateCost(opts)
}

func (s *Service) Run(ctx context.Context, req generationdomain.Request, sink generationdomain.EventSink) (*generationdomain.Outcome, error) {
	started := time.Now()

	if strings.TrimSpace(req.UserID) == "" || req.ProjectID == 0 {
		return nil, generationdomain.ErrInvalidRequest
	}
	docs := generationdomain.OrderDocuments(req.Documents)
	if len(docs) == 0 {
		return nil, generationdomain.ErrNoDocuments
	}
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}
	ctx = obscontext.WithJobID(ctx, req.JobID)
	if sink == nil {
		sink = func(generationdomain.Event) {}
	}
	providerName, model := s.resolveBackend(req)

	// Admission. An insufficient balance stops the run before any
	// side effect: nothing persisted, no events emitted.
	reserved := generationdomain.EstimateCost(req.Options).Expected
	ok, err := s.credits.Reserve(ctx, req.UserID, reserved, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("reserve %d credits: %w", reserved, err)
	}
	if !ok {
		return nil, generationdomain.ErrInsufficientCredits
	}
	s.metrics.AddReserved(reserved)
	log := s.log.With(
		zap.String("job_id", req.JobID),
		zap.String("user_id", req.UserID),
		zap.Int64("project_id", int64(req.ProjectID)),
	)
	log.Info("credits reserved", zap.Int64("amount", reserved))

	// Visible evidence of an in-flight run must land before the first
	// provider call, so a crash leaves a generating row, not silence.
	if err := s.projects.SetStatus(ctx, req.ProjectID, projectdomain.StatusGenerating, ""); err != nil {
		return nil, s.failRun(ctx, req, reserved, started, sink, fmt.Errorf("mark project generating: %w", err))
	}

	bodies := map[generationdomain.DocumentKind]string{}
	var totalInput, totalOutput int64
	for i, kind := range docs {
		prompt := buildPrompt(req, kind, bodies[generationdomain.DocumentWorksheet])
		result, err := s.providers.GenerateContent(ctx, prompt, provider.Config{
			Provider:  providerName,
			Model:     model,
			MaxTokens: defaultMaxTokens,
		})
		if err != nil {
			return nil, s.failRun(ctx, req, reserved, started, sink, fmt.Errorf("generate %s: %w", kind, err))
		}
		bodies[kind] = generationdomain.NormalizeMarkup(result.Content, req.Title)
		totalInput += result.InputTokens
		totalOutput += result.OutputTokens
		s.metrics.IncDocument(string(kind))
		s.recordUsage(ctx, req, kind, providerName, model, result)

		sink(generationdomain.Event{
			Type:     generationdomain.EventTypeProgress,
			Step:     kind,
			Progress: (i + 1) * 90 / len(docs),
			Message:  stepMessage(kind),
		})
	}

	version := &projectdomain.Version{
		ProjectID:      req.ProjectID,
		WorksheetHTML:  bodies[generationdomain.DocumentWorksheet],
		LessonPlanHTML: bodies[generationdomain.DocumentLessonPlan],
		AnswerKeyHTML:  bodies[generationdomain.DocumentAnswerKey],
		Provider:       providerName,
		Model:          model,
		Mode:           req.Mode(),
	}
	if err := s.projects.CreateVersion(ctx, version); err != nil {
		return nil, s.failRun(ctx, req, reserved, started, sink, fmt.Errorf("persist version: %w", err))
	}

	outcome := &generationdomain.Outcome{
		JobID:           req.JobID,
		ProjectID:       req.ProjectID,
		VersionID:       version.ID,
		Documents:       docs,
		Provider:        providerName,
		Model:           model,
		ReservedCredits: reserved,
	}
	reconcileErr := s.reconcile(ctx, req, reserved, totalInput, totalOutput, outcome, log)

	if err := s.projects.SetStatus(ctx, req.ProjectID, projectdomain.StatusCompleted, ""); err != nil {
		log.Error("failed to mark project completed", zap.Error(err))
	}
	s.publishEvent(ctx, req, events.EventGenerationCompleted, events.GenerationPayload{
		ProjectID:   req.ProjectID.String(),
		JobID:       req.JobID,
		Provider:    providerName,
		Model:       model,
		CreditsUsed: outcome.ActualCredits,
	}.ToMap())
	s.metrics.ObserveRun("completed", time.Since(started))

	sink(generationdomain.Event{
		Type:     generationdomain.EventTypeComplete,
		Progress: 100,
		Message:  "Generation complete",
		Result:   outcome,
	})
	return outcome, reconcileErr
}

// resolveBackend fills in provider and model defaults. Local runs ask
// the readiness manager which model is actually installed.
func (s *Service) resolveBackend(req generationdomain.Request) (string, string) {
	providerName := strings.ToLower(strings.TrimSpace(req.Provider))
	if providerName == "" {
		providerName = s.cfg.DefaultProvider
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		if providerName == "ollama" && s.readiness != nil {
			model = s.readiness.ResolveModelName()
		} else {
			model = s.cfg.DefaultModel
		}
	}
	return providerName, model
}

// reconcile settles the reservation against real token usage. Only
// under-spend is refunded; overage is absorbed, never billed.
func (s *Service) reconcile(ctx context.Context, req generationdomain.Request, reserved, totalInput, totalOutput int64, outcome *generationdomain.Outcome, log *zap.Logger) error {
	actual := provider.CalculateCredits(totalInput, totalOutput)
	outcome.ActualCredits = actual

	if actual < reserved {
		diff := reserved - actual
		if err := s.credits.Refund(ctx, req.UserID, diff, req.JobID, "Actual usage less than reserved"); err != nil {
			// The documents exist and the run succeeded, but the user
			// is over-charged. Surface it instead of swallowing.
			log.Error("reconciliation refund failed", zap.Int64("amount", diff), zap.Error(err))
			return fmt.Errorf("reconciliation refund of %d credits: %w", diff, err)
		}
		outcome.RefundedCredits = diff
		s.metrics.AddRefunded(diff)
		s.publishEvent(ctx, req, events.EventCreditsRefunded, events.RefundPayload{
			JobID:  req.JobID,
			Amount: diff,
			Reason: "Actual usage less than reserved",
		}.ToMap())
	}

	if err := s.credits.Deduct(ctx, req.UserID, actual, req.JobID); err != nil {
		log.Error("usage deduction bookkeeping failed", zap.Error(err))
	}
	if err := s.projects.RecordUsage(ctx, req.ProjectID, actual); err != nil {
		log.Error("failed to record project usage", zap.Error(err))
	}
	log.Info("credits reconciled",
		zap.Int64("reserved", reserved),
		zap.Int64("actual", actual),
		zap.Int64("refunded", outcome.RefundedCredits),
	)
	return nil
}

// failRun is the single failure exit: full refund of the reservation,
// failed status on the project, one terminal error event, and the
// original error back to the caller. A refund failure is joined to the
// cause rather than replacing it.
func (s *Service) failRun(ctx context.Context, req generationdomain.Request, reserved int64, started time.Time, sink generationdomain.EventSink, cause error) error {
	// The compensation path must run even when the failure was the
	// caller's context being cancelled.
	ctx = context.WithoutCancel(ctx)

	runErr := cause
	reason := "Generation failed: " + cause.Error()
	if err := s.credits.Refund(ctx, req.UserID, reserved, req.JobID, reason); err != nil {
		s.log.Error("failure refund failed",
			zap.String("job_id", req.JobID),
			zap.Int64("amount", reserved),
			zap.Error(err),
		)
		runErr = errors.Join(cause, fmt.Errorf("refund %d credits: %w", reserved, err))
	} else {
		s.metrics.AddRefunded(reserved)
	}

	if err := s.projects.SetStatus(ctx, req.ProjectID, projectdomain.StatusFailed, cause.Error()); err != nil {
		s.log.Error("failed to mark project failed", zap.String("job_id", req.JobID), zap.Error(err))
	}
	s.publishEvent(ctx, req, events.EventGenerationFailed, events.GenerationPayload{
		ProjectID: req.ProjectID.String(),
		JobID:     req.JobID,
		Error:     cause.Error(),
	}.ToMap())
	s.metrics.ObserveRun("failed", time.Since(started))

	sink(generationdomain.Event{
		Type:    generationdomain.EventTypeError,
		Message: cause.Error(),
	})
	return runErr
}

func (s *Service) recordUsage(ctx context.Context, req generationdomain.Request, kind generationdomain.DocumentKind, providerName, model string, result *provider.Result) {
	if s.usage == nil {
		return
	}
	err := s.usage.Record(ctx, &usagedomain.Record{
		UserID:       req.UserID,
		JobID:        req.JobID,
		DocumentKind: string(kind),
		Provider:     providerName,
		Model:        model,
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
		Credits:      provider.CalculateCredits(result.InputTokens, result.OutputTokens),
	})
	if err != nil {
		s.log.Warn("failed to record token usage", zap.String("job_id", req.JobID), zap.Error(err))
	}
}

func (s *Service) publishEvent(ctx context.Context, req generationdomain.Request, eventType string, payload map[string]any) {
	if s.outbox == nil {
		return
	}
	err := s.outbox.Publish(ctx, events.Event{
		UserID:    req.UserID,
		Type:      eventType,
		Payload:   payload,
		DedupeKey: req.JobID + ":" + eventType,
	})
	if err != nil {
		s.log.Warn("failed to publish outbox event",
			zap.String("event_type", eventType),
			zap.Any("payload", logger.MaskJSON(payload)),
			zap.Error(err),
		)
	}
}
