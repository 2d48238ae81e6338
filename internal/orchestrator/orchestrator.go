package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra/geoip"
	"server/internal/intent"
	"server/internal/prompt"
	"server/internal/provider"
)

// Task progress checkpoints. Intermediate provider progress is not tracked;
// tasks jump from accepted to dispatched to terminal.
const (
	progressAccepted   = 0
	progressDispatched = 10
	progressDone       = 100
)

// extractor is the slice of intent.Extractor the orchestrator consumes,
// narrowed for test fakes.
type extractor interface {
	Extract(ctx context.Context, rawText string, hasReferenceMedia bool) (*domain.AnalyzedIntent, error)
}

// registry is the slice of provider.Registry the orchestrator consumes.
type registry interface {
	Select(contentType domain.ContentType) (provider.Provider, error)
}

// Options wires the orchestrator's collaborators.
type Options struct {
	Extractor       extractor
	FallbackEnabled bool
	ModelDefaults   intent.ModelDefaults
	Registry        registry
	Tasks           domain.TaskRepository
	Assets          domain.AssetRepository
	Stats           domain.StatsRepository
	Geo             geoip.CountryResolver
	Logger          zerolog.Logger
}

// Orchestrator drives the generation pipeline: analyze free text into an
// intent, route it to a model, enhance the prompt, persist the task and hand
// it to a provider. Submission is synchronous only up to persistence; the
// provider call happens in Execute, normally from a worker.
type Orchestrator struct {
	extractor       extractor
	fallbackEnabled bool
	modelDefaults   intent.ModelDefaults
	registry        registry
	tasks           domain.TaskRepository
	assets          domain.AssetRepository
	stats           domain.StatsRepository
	geo             geoip.CountryResolver
	logger          zerolog.Logger
}

// New constructs an Orchestrator from its options.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		extractor:       opts.Extractor,
		fallbackEnabled: opts.FallbackEnabled,
		modelDefaults:   opts.ModelDefaults,
		registry:        opts.Registry,
		tasks:           opts.Tasks,
		assets:          opts.Assets,
		stats:           opts.Stats,
		geo:             opts.Geo,
		logger:          opts.Logger,
	}
}

// SubmitRequest carries a user's raw generation request.
type SubmitRequest struct {
	UserID         string
	Prompt         string
	ReferenceMedia []string
	ClientIP       string
}

// Analysis bundles the analyzed intent with the routing decision so API
// responses can echo both.
type Analysis struct {
	Intent        *domain.AnalyzedIntent
	SelectedModel string
	UsedFallback  bool
}

// Analyze turns free text into a structured intent and a model choice. When
// the NLU extractor is unavailable or fails and the rule-based fallback is
// enabled, the fallback classifier engages exactly once; with the fallback
// disabled the extraction error propagates.
func (o *Orchestrator) Analyze(ctx context.Context, rawText string, hasReferenceMedia bool) (*Analysis, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return nil, domain.ErrInvalidPrompt
	}

	analyzed, err := o.extractor.Extract(ctx, rawText, hasReferenceMedia)
	usedFallback := false
	if err != nil {
		if !o.fallbackEnabled {
			return nil, fmt.Errorf("analyze intent: %w", err)
		}
		if !errors.Is(err, intent.ErrUnavailable) {
			o.logger.Warn().Err(err).Msg("orchestrator: nlu extraction failed, using keyword fallback")
		}
		analyzed = intent.Classify(rawText, hasReferenceMedia)
		usedFallback = true
	}

	if analyzed.VideoParams != nil {
		analyzed.VideoParams.Duration = intent.NormalizeDuration(analyzed.VideoParams.Duration)
	}

	model, err := intent.SelectModel(analyzed, o.modelDefaults)
	if err != nil {
		return nil, err
	}

	return &Analysis{Intent: analyzed, SelectedModel: model, UsedFallback: usedFallback}, nil
}

// Submit analyzes the request, persists a PENDING task and returns it
// together with the analysis. Only analysis and persistence errors are
// synchronous; provider failures surface later through the task status.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*domain.GenerationTask, *Analysis, error) {
	analysis, err := o.Analyze(ctx, req.Prompt, len(req.ReferenceMedia) > 0)
	if err != nil {
		return nil, nil, err
	}

	analyzed := analysis.Intent
	cleanPrompt := analyzed.CleanPrompt
	if strings.TrimSpace(cleanPrompt) == "" {
		cleanPrompt = analyzed.OriginalPrompt
	}
	enhanced := prompt.Enhance(cleanPrompt, analyzed.ContentType, analyzed.HasReferenceMedia)

	now := time.Now().UTC()
	task := &domain.GenerationTask{
		TaskID:          uuid.NewString(),
		UserID:          req.UserID,
		OriginalPrompt:  analyzed.OriginalPrompt,
		OptimizedPrompt: enhanced,
		ReferenceMedia:  req.ReferenceMedia,
		ContentType:     analyzed.ContentType,
		IntentScene:     analyzed.IntentScene,
		SelectedModel:   analysis.SelectedModel,
		Status:          domain.TaskStatusPending,
		Progress:        progressAccepted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	applyIntentParams(task, analyzed)

	if err := o.tasks.Create(ctx, task); err != nil {
		return nil, nil, fmt.Errorf("persist task: %w", err)
	}

	o.recordSubmission(ctx, task, req.ClientIP)

	o.logger.Info().
		Str("task_id", task.TaskID).
		Str("content_type", string(task.ContentType)).
		Str("model", task.SelectedModel).
		Bool("fallback", analysis.UsedFallback).
		Msg("orchestrator: task submitted")

	return task, analysis, nil
}

// Execute runs a claimed task to completion. Every failure path still
// transitions the task to FAILED; an asset row is created only for results
// that pass the success gate.
func (o *Orchestrator) Execute(ctx context.Context, task *domain.GenerationTask) {
	start := time.Now()

	if task.Status != domain.TaskStatusProcessing {
		task.Status = domain.TaskStatusProcessing
		task.Progress = progressDispatched
		task.UpdatedAt = time.Now().UTC()
		if err := o.tasks.Update(ctx, task); err != nil {
			o.logger.Error().Err(err).Str("task_id", task.TaskID).Msg("orchestrator: mark processing failed")
		}
	}

	p, err := o.registry.Select(task.ContentType)
	if err != nil {
		o.failTask(ctx, task, err.Error(), start)
		return
	}

	o.logger.Info().
		Str("task_id", task.TaskID).
		Str("provider", p.Name()).
		Msg("orchestrator: dispatching task")

	result := p.Generate(ctx, task)
	if !result.IsSuccess() {
		// The task stores the provider's message verbatim; the error code
		// only goes to the log.
		message := result.ErrorMessage
		if message == "" {
			message = "generation failed"
		}
		o.logger.Warn().
			Str("task_id", task.TaskID).
			Str("error_code", result.ErrorCode).
			Msg("orchestrator: provider reported failure")
		o.failTask(ctx, task, message, start)
		return
	}

	asset := &domain.Asset{
		AssetID:      uuid.NewString(),
		TaskID:       task.TaskID,
		ContentType:  task.ContentType,
		URL:          result.URL,
		ThumbnailURL: result.ThumbnailURL,
		Prompt:       task.OptimizedPrompt,
		Model:        result.ModelUsed,
		CreatedAt:    time.Now().UTC(),
	}
	if err := o.assets.Create(ctx, asset); err != nil {
		o.failTask(ctx, task, fmt.Sprintf("persist asset: %v", err), start)
		return
	}

	task.Status = domain.TaskStatusCompleted
	task.Progress = progressDone
	task.ResultAssetID = &asset.AssetID
	task.ResultURL = &result.URL
	if result.ThumbnailURL != "" {
		task.ThumbnailURL = &result.ThumbnailURL
	}
	task.DurationMs = time.Since(start).Milliseconds()
	task.UpdatedAt = time.Now().UTC()
	if err := o.tasks.Update(ctx, task); err != nil {
		o.logger.Error().Err(err).Str("task_id", task.TaskID).Msg("orchestrator: mark completed failed")
		return
	}

	o.incrementStats(ctx, map[string]int{"completed": 1})

	o.logger.Info().
		Str("task_id", task.TaskID).
		Str("asset_id", asset.AssetID).
		Int64("duration_ms", task.DurationMs).
		Msg("orchestrator: task completed")
}

// GetTask fetches a task by ID.
func (o *Orchestrator) GetTask(ctx context.Context, taskID string) (*domain.GenerationTask, error) {
	return o.tasks.GetByID(ctx, taskID)
}

// applyIntentParams copies the effective technical parameters onto the task
// so providers see the analyzed values instead of config defaults.
func applyIntentParams(task *domain.GenerationTask, analyzed *domain.AnalyzedIntent) {
	switch analyzed.ContentType {
	case domain.ContentTypeImage:
		params := analyzed.EffectiveImageParams()
		task.AspectRatio = params.AspectRatio
		task.ImageSize = params.ImageSize
	case domain.ContentTypeVideo:
		params := analyzed.EffectiveVideoParams()
		task.AspectRatio = params.AspectRatio
		task.Resolution = params.Resolution
		task.DurationSeconds = params.Duration
	}
}

func (o *Orchestrator) failTask(ctx context.Context, task *domain.GenerationTask, message string, start time.Time) {
	task.Status = domain.TaskStatusFailed
	task.ErrorMessage = &message
	task.DurationMs = time.Since(start).Milliseconds()
	task.UpdatedAt = time.Now().UTC()
	if err := o.tasks.Update(ctx, task); err != nil {
		o.logger.Error().Err(err).Str("task_id", task.TaskID).Msg("orchestrator: mark failed failed")
	}
	o.incrementStats(ctx, map[string]int{"failed": 1})
	o.logger.Warn().
		Str("task_id", task.TaskID).
		Str("error", message).
		Msg("orchestrator: task failed")
}

// recordSubmission bumps the daily counters for the new task, including a
// per-country counter when the client IP resolves.
func (o *Orchestrator) recordSubmission(ctx context.Context, task *domain.GenerationTask, clientIP string) {
	counters := map[string]int{
		"submitted": 1,
		"type:" + strings.ToLower(string(task.ContentType)): 1,
	}
	if o.geo != nil && clientIP != "" {
		if code, err := o.geo.CountryCode(clientIP); err == nil && code != "" {
			counters["country:"+code] = 1
		}
	}
	o.incrementStats(ctx, counters)
}

// incrementStats is best-effort; counter failures never fail a task.
func (o *Orchestrator) incrementStats(ctx context.Context, counters map[string]int) {
	if o.stats == nil {
		return
	}
	day := time.Now().UTC().Format("2006-01-02")
	if err := o.stats.IncrementCounters(ctx, day, counters); err != nil {
		o.logger.Warn().Err(err).Msg("orchestrator: stats update failed")
	}
}
