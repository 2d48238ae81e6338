package provider

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

type fakeProvider struct {
	name        string
	typ         Type
	contentType domain.ContentType
	available   bool
}

func (f *fakeProvider) Name() string                     { return f.name }
func (f *fakeProvider) Type() Type                       { return f.typ }
func (f *fakeProvider) ContentType() domain.ContentType  { return f.contentType }
func (f *fakeProvider) Available() bool                  { return f.available }
func (f *fakeProvider) Capabilities() Capabilities       { return NewCapabilities() }
func (f *fakeProvider) Generate(ctx context.Context, task *domain.GenerationTask) *domain.GenerationResult {
	return &domain.GenerationResult{Success: true, TaskID: task.TaskID}
}

func testLogger() zerolog.Logger { return zerolog.New(io.Discard) }

func TestSelectByTypeEnum(t *testing.T) {
	google := &fakeProvider{name: "Google Gemini Image", typ: TypeGoogle, contentType: domain.ContentTypeImage, available: true}
	qwen := &fakeProvider{name: "Qwen Image", typ: TypeQwen, contentType: domain.ContentTypeImage, available: true}
	r := NewRegistry(ActiveProviders{Image: "qwen"}, testLogger(), google, qwen)

	p, err := r.Select(domain.ContentTypeImage)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if p.Name() != "Qwen Image" {
		t.Fatalf("expected qwen provider, got %s", p.Name())
	}
}

func TestSelectBySubstring(t *testing.T) {
	google := &fakeProvider{name: "Google Veo", typ: TypeGoogle, contentType: domain.ContentTypeVideo, available: true}
	r := NewRegistry(ActiveProviders{Video: "veo"}, testLogger(), google)

	p, err := r.Select(domain.ContentTypeVideo)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if p.Name() != "Google Veo" {
		t.Fatalf("expected veo provider, got %s", p.Name())
	}
}

func TestSelectEmptyActiveTakesFirstAvailable(t *testing.T) {
	down := &fakeProvider{name: "Primary", typ: TypeGoogle, contentType: domain.ContentTypeImage, available: false}
	up := &fakeProvider{name: "Secondary", typ: TypeQwen, contentType: domain.ContentTypeImage, available: true}
	r := NewRegistry(ActiveProviders{}, testLogger(), down, up)

	p, err := r.Select(domain.ContentTypeImage)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if p.Name() != "Secondary" {
		t.Fatalf("expected first available provider, got %s", p.Name())
	}
}

func TestSelectNoProvider(t *testing.T) {
	down := &fakeProvider{name: "Primary", typ: TypeGoogle, contentType: domain.ContentTypeAudio, available: false}
	r := NewRegistry(ActiveProviders{}, testLogger(), down)

	if _, err := r.Select(domain.ContentTypeAudio); !errors.Is(err, domain.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
	if _, err := r.Select(domain.ContentTypeVideo); !errors.Is(err, domain.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider for empty type, got %v", err)
	}
}

func TestSelectActiveNameExcludesOthers(t *testing.T) {
	google := &fakeProvider{name: "Google Gemini Image", typ: TypeGoogle, contentType: domain.ContentTypeImage, available: true}
	r := NewRegistry(ActiveProviders{Image: "qwen"}, testLogger(), google)

	if _, err := r.Select(domain.ContentTypeImage); !errors.Is(err, domain.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider when active name matches nothing, got %v", err)
	}
}

func TestAllFiltersUnavailable(t *testing.T) {
	up := &fakeProvider{name: "Up", typ: TypeGoogle, contentType: domain.ContentTypeImage, available: true}
	down := &fakeProvider{name: "Down", typ: TypeQwen, contentType: domain.ContentTypeImage, available: false}
	r := NewRegistry(ActiveProviders{}, testLogger(), up, down)

	all := r.All(domain.ContentTypeImage)
	if len(all) != 1 || all[0].Name() != "Up" {
		t.Fatalf("expected only available providers, got %v", all)
	}
}
