package orchestrator

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/intent"
	"server/internal/provider"
)

type fakeExtractor struct {
	result *domain.AnalyzedIntent
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, rawText string, hasReferenceMedia bool) (*domain.AnalyzedIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.result
	out.OriginalPrompt = rawText
	out.HasReferenceMedia = hasReferenceMedia
	return &out, nil
}

type fakeTaskRepo struct {
	created []*domain.GenerationTask
	updated []*domain.GenerationTask
}

func (f *fakeTaskRepo) Create(ctx context.Context, task *domain.GenerationTask) error {
	copied := *task
	f.created = append(f.created, &copied)
	return nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, task *domain.GenerationTask) error {
	copied := *task
	f.updated = append(f.updated, &copied)
	return nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, taskID string) (*domain.GenerationTask, error) {
	for _, task := range f.created {
		if task.TaskID == taskID {
			return task, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTaskRepo) ClaimPending(ctx context.Context) (*domain.GenerationTask, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeTaskRepo) lastUpdate() *domain.GenerationTask {
	if len(f.updated) == 0 {
		return nil
	}
	return f.updated[len(f.updated)-1]
}

type fakeAssetRepo struct {
	created []*domain.Asset
	err     error
}

func (f *fakeAssetRepo) Create(ctx context.Context, asset *domain.Asset) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, asset)
	return nil
}

func (f *fakeAssetRepo) GetByID(ctx context.Context, assetID string) (*domain.Asset, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeAssetRepo) List(ctx context.Context, filter domain.AssetFilter) ([]domain.Asset, int, error) {
	return nil, 0, nil
}

func (f *fakeAssetRepo) SetPublished(ctx context.Context, assetID string, published bool) error {
	return nil
}

func (f *fakeAssetRepo) Delete(ctx context.Context, assetID string) error { return nil }

type fakeStatsRepo struct {
	counters map[string]int
}

func (f *fakeStatsRepo) IncrementCounters(ctx context.Context, day string, counters map[string]int) error {
	if f.counters == nil {
		f.counters = map[string]int{}
	}
	for k, v := range counters {
		f.counters[k] += v
	}
	return nil
}

func (f *fakeStatsRepo) GetSummary(ctx context.Context) (map[string]int, error) {
	return f.counters, nil
}

type fakeRegistry struct {
	provider provider.Provider
	err      error
}

func (f *fakeRegistry) Select(contentType domain.ContentType) (provider.Provider, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.provider, nil
}

type fakeGenProvider struct {
	result *domain.GenerationResult
	calls  atomic.Int32
}

func (f *fakeGenProvider) Name() string                    { return "fake" }
func (f *fakeGenProvider) Type() provider.Type             { return provider.TypeOther }
func (f *fakeGenProvider) ContentType() domain.ContentType { return domain.ContentTypeImage }
func (f *fakeGenProvider) Available() bool                 { return true }
func (f *fakeGenProvider) Capabilities() provider.Capabilities {
	return provider.NewCapabilities()
}
func (f *fakeGenProvider) Generate(ctx context.Context, task *domain.GenerationTask) *domain.GenerationResult {
	f.calls.Add(1)
	result := *f.result
	result.TaskID = task.TaskID
	return &result
}

var orchDefaults = intent.ModelDefaults{
	ImageModel: "gemini-2.5-flash-image",
	VideoModel: "veo-3.1-generate-preview",
	AudioModel: "lyria-realtime-exp",
}

func newTestOrchestrator(extractor *fakeExtractor, reg *fakeRegistry, tasks *fakeTaskRepo, assets *fakeAssetRepo, fallback bool) *Orchestrator {
	return New(Options{
		Extractor:       extractor,
		FallbackEnabled: fallback,
		ModelDefaults:   orchDefaults,
		Registry:        reg,
		Tasks:           tasks,
		Assets:          assets,
		Stats:           &fakeStatsRepo{},
		Logger:          zerolog.New(io.Discard),
	})
}

func TestSubmitCreatesPendingTask(t *testing.T) {
	tasks := &fakeTaskRepo{}
	extractor := &fakeExtractor{result: &domain.AnalyzedIntent{
		ContentType: domain.ContentTypeImage,
		IntentScene: domain.SceneTextToImage,
		CleanPrompt: "a red fox",
		Confidence:  0.92,
	}}
	orch := newTestOrchestrator(extractor, &fakeRegistry{}, tasks, &fakeAssetRepo{}, true)

	task, analysis, err := orch.Submit(context.Background(), SubmitRequest{Prompt: "draw a red fox"})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if task.Status != domain.TaskStatusPending {
		t.Fatalf("expected PENDING, got %s", task.Status)
	}
	if task.Progress != 0 {
		t.Fatalf("expected progress 0, got %d", task.Progress)
	}
	if task.SelectedModel != orchDefaults.ImageModel {
		t.Fatalf("unexpected model %q", task.SelectedModel)
	}
	if !strings.Contains(task.OptimizedPrompt, "a red fox") ||
		!strings.Contains(task.OptimizedPrompt, "high quality") {
		t.Fatalf("prompt not enhanced: %q", task.OptimizedPrompt)
	}
	if task.OriginalPrompt != "draw a red fox" {
		t.Fatalf("original prompt lost: %q", task.OriginalPrompt)
	}
	if analysis.UsedFallback {
		t.Fatal("fallback flagged despite healthy extractor")
	}
	if len(tasks.created) != 1 {
		t.Fatalf("expected 1 persisted task, got %d", len(tasks.created))
	}
}

func TestSubmitEmptyPrompt(t *testing.T) {
	orch := newTestOrchestrator(&fakeExtractor{err: errors.New("boom")}, &fakeRegistry{}, &fakeTaskRepo{}, &fakeAssetRepo{}, true)
	if _, _, err := orch.Submit(context.Background(), SubmitRequest{Prompt: "   "}); !errors.Is(err, domain.ErrInvalidPrompt) {
		t.Fatalf("expected ErrInvalidPrompt, got %v", err)
	}
}

func TestAnalyzeFallbackOnExtractorFailure(t *testing.T) {
	orch := newTestOrchestrator(&fakeExtractor{err: intent.ErrUnavailable}, &fakeRegistry{}, &fakeTaskRepo{}, &fakeAssetRepo{}, true)

	analysis, err := orch.Analyze(context.Background(), "animate this painting", false)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if !analysis.UsedFallback {
		t.Fatal("expected fallback classification")
	}
	if analysis.Intent.ContentType != domain.ContentTypeVideo {
		t.Fatalf("expected VIDEO from keyword rules, got %s", analysis.Intent.ContentType)
	}
	if analysis.Intent.Confidence != 0.5 {
		t.Fatalf("expected degraded confidence, got %v", analysis.Intent.Confidence)
	}
}

func TestAnalyzeFallbackDisabledPropagatesError(t *testing.T) {
	orch := newTestOrchestrator(&fakeExtractor{err: intent.ErrUnavailable}, &fakeRegistry{}, &fakeTaskRepo{}, &fakeAssetRepo{}, false)

	if _, err := orch.Analyze(context.Background(), "a cat", false); !errors.Is(err, intent.ErrUnavailable) {
		t.Fatalf("expected extractor error to propagate, got %v", err)
	}
}

func TestAnalyzeNormalizesVideoDuration(t *testing.T) {
	extractor := &fakeExtractor{result: &domain.AnalyzedIntent{
		ContentType: domain.ContentTypeVideo,
		IntentScene: domain.SceneTextToVideo,
		CleanPrompt: "waves",
		VideoParams: &domain.VideoParams{Duration: 7, Quality: "standard"},
	}}
	orch := newTestOrchestrator(extractor, &fakeRegistry{}, &fakeTaskRepo{}, &fakeAssetRepo{}, true)

	analysis, err := orch.Analyze(context.Background(), "7 second clip of waves", false)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if analysis.Intent.VideoParams.Duration != 6 {
		t.Fatalf("expected snapped duration 6, got %d", analysis.Intent.VideoParams.Duration)
	}
}

func TestExecuteSuccess(t *testing.T) {
	tasks := &fakeTaskRepo{}
	assets := &fakeAssetRepo{}
	genProvider := &fakeGenProvider{result: &domain.GenerationResult{
		Success:     true,
		ContentType: domain.ContentTypeImage,
		URL:         "http://localhost/static/generated/images/t1/image-01.png",
		ModelUsed:   "gemini-2.5-flash-image",
	}}
	orch := newTestOrchestrator(&fakeExtractor{}, &fakeRegistry{provider: genProvider}, tasks, assets, true)

	task := &domain.GenerationTask{
		TaskID:          "t1",
		ContentType:     domain.ContentTypeImage,
		OptimizedPrompt: "a red fox, high quality, detailed",
		Status:          domain.TaskStatusPending,
	}
	orch.Execute(context.Background(), task)

	final := tasks.lastUpdate()
	if final == nil || final.Status != domain.TaskStatusCompleted {
		t.Fatalf("expected COMPLETED, got %+v", final)
	}
	if final.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", final.Progress)
	}
	if final.ResultURL == nil || *final.ResultURL != genProvider.result.URL {
		t.Fatalf("result url not set: %+v", final.ResultURL)
	}
	if len(assets.created) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(assets.created))
	}
	asset := assets.created[0]
	if asset.TaskID != "t1" || asset.Model != "gemini-2.5-flash-image" {
		t.Fatalf("asset fields wrong: %+v", asset)
	}
	if final.ResultAssetID == nil || *final.ResultAssetID != asset.AssetID {
		t.Fatal("task does not reference the created asset")
	}
}

func TestExecuteProviderFailure(t *testing.T) {
	tasks := &fakeTaskRepo{}
	assets := &fakeAssetRepo{}
	genProvider := &fakeGenProvider{result: &domain.GenerationResult{
		ContentType:  domain.ContentTypeImage,
		ErrorCode:    "NO_IMAGE_GENERATED",
		ErrorMessage: "blocked by safety filter",
	}}
	orch := newTestOrchestrator(&fakeExtractor{}, &fakeRegistry{provider: genProvider}, tasks, assets, true)

	task := &domain.GenerationTask{TaskID: "t2", ContentType: domain.ContentTypeImage, Status: domain.TaskStatusPending}
	orch.Execute(context.Background(), task)

	final := tasks.lastUpdate()
	if final == nil || final.Status != domain.TaskStatusFailed {
		t.Fatalf("expected FAILED, got %+v", final)
	}
	// The provider's message is stored verbatim, without the error code.
	if final.ErrorMessage == nil || *final.ErrorMessage != "blocked by safety filter" {
		t.Fatalf("error message not stored verbatim: %+v", final.ErrorMessage)
	}
	if len(assets.created) != 0 {
		t.Fatal("asset must not be created for failed generation")
	}
}

func TestExecuteSuccessFlagWithErrorCodeIsFailure(t *testing.T) {
	// A provider claiming success while carrying an error code is an invalid
	// state; the gate treats it as failure.
	tasks := &fakeTaskRepo{}
	assets := &fakeAssetRepo{}
	genProvider := &fakeGenProvider{result: &domain.GenerationResult{
		Success:     true,
		ContentType: domain.ContentTypeImage,
		ErrorCode:   "PARTIAL",
	}}
	orch := newTestOrchestrator(&fakeExtractor{}, &fakeRegistry{provider: genProvider}, tasks, assets, true)

	task := &domain.GenerationTask{TaskID: "t3", ContentType: domain.ContentTypeImage, Status: domain.TaskStatusPending}
	orch.Execute(context.Background(), task)

	final := tasks.lastUpdate()
	if final == nil || final.Status != domain.TaskStatusFailed {
		t.Fatalf("expected FAILED, got %+v", final)
	}
	if len(assets.created) != 0 {
		t.Fatal("asset must not be created for invalid success state")
	}
}

func TestExecuteNoProvider(t *testing.T) {
	tasks := &fakeTaskRepo{}
	orch := newTestOrchestrator(&fakeExtractor{}, &fakeRegistry{err: domain.ErrNoProvider}, tasks, &fakeAssetRepo{}, true)

	task := &domain.GenerationTask{TaskID: "t4", ContentType: domain.ContentTypeAudio, Status: domain.TaskStatusPending}
	orch.Execute(context.Background(), task)

	final := tasks.lastUpdate()
	if final == nil || final.Status != domain.TaskStatusFailed {
		t.Fatalf("expected FAILED, got %+v", final)
	}
}

func TestExecuteAssetPersistFailure(t *testing.T) {
	tasks := &fakeTaskRepo{}
	assets := &fakeAssetRepo{err: errors.New("disk full")}
	genProvider := &fakeGenProvider{result: &domain.GenerationResult{
		Success:     true,
		ContentType: domain.ContentTypeImage,
		URL:         "http://localhost/static/x.png",
	}}
	orch := newTestOrchestrator(&fakeExtractor{}, &fakeRegistry{provider: genProvider}, tasks, assets, true)

	task := &domain.GenerationTask{TaskID: "t5", ContentType: domain.ContentTypeImage, Status: domain.TaskStatusPending}
	orch.Execute(context.Background(), task)

	final := tasks.lastUpdate()
	if final == nil || final.Status != domain.TaskStatusFailed {
		t.Fatalf("expected FAILED when asset persistence fails, got %+v", final)
	}
}
