package events

// Generation event types recorded in the outbox.
const (
	EventGenerationCompleted = "generation.completed"
	EventGenerationFailed    = "generation.failed"
	EventCreditsRefunded     = "credits.refunded"
)

// GenerationPayload captures the minimal data needed to notify
// downstream consumers about a finished generation run.
type GenerationPayload struct {
	ProjectID   string `json:"project_id"`
	JobID       string `json:"job_id"`
	Provider    string `json:"provider,omitempty"`
	Model       string `json:"model,omitempty"`
	CreditsUsed int64  `json:"credits_used"`
	Error       string `json:"error,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p GenerationPayload) ToMap() map[string]any {
	payload := map[string]any{
		"project_id":   p.ProjectID,
		"job_id":       p.JobID,
		"credits_used": p.CreditsUsed,
	}
	if p.Provider != "" {
		payload["provider"] = p.Provider
	}
	if p.Model != "" {
		payload["model"] = p.Model
	}
	if p.Error != "" {
		payload["error"] = p.Error
	}
	return payload
}

// RefundPayload captures the minimal data needed to audit a refund.
type RefundPayload struct {
	JobID  string `json:"job_id"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p RefundPayload) ToMap() map[string]any {
	payload := map[string]any{
		"job_id": p.JobID,
		"amount": p.Amount,
	}
	if p.Reason != "" {
		payload["reason"] = p.Reason
	}
	return payload
}
