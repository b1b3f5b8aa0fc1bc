package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

// mockProcessor is a test processor that appends its name to the title.
type mockProcessor struct {
	name string
	err  error
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, data *domain.PageData) error {
	if m.err != nil {
		return m.err
	}
	data.FullTitle += "[" + m.name + "]"
	return nil
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.Len() != 0 {
		t.Errorf("expected 0 processors, got %d", p.Len())
	}
	if p.Name() != "pipeline" {
		t.Errorf("expected name 'pipeline', got %q", p.Name())
	}
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	p.Add(&mockProcessor{name: "test"})

	if p.Len() != 1 {
		t.Errorf("expected 1 processor, got %d", p.Len())
	}
}

func TestPipeline_Process_NilData(t *testing.T) {
	p := NewPipeline()

	if err := p.Process(context.Background(), nil); err == nil {
		t.Error("expected error for nil page data")
	}
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	p := NewPipeline()
	data := &domain.PageData{FullTitle: "Title", Text: "test content"}

	if err := p.Process(context.Background(), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.FullTitle != "Title" || data.Text != "test content" {
		t.Errorf("expected data unchanged, got %+v", data)
	}
}

func TestPipeline_Process_RunsInOrder(t *testing.T) {
	p := NewPipeline(
		&mockProcessor{name: "first"},
		&mockProcessor{name: "second"},
	)
	data := &domain.PageData{FullTitle: "T"}

	if err := p.Process(context.Background(), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.FullTitle != "T[first][second]" {
		t.Errorf("expected processors in order, got %q", data.FullTitle)
	}
}

func TestPipeline_Process_ProcessorError(t *testing.T) {
	expectedErr := errors.New("processor failed")

	p := NewPipeline(
		&mockProcessor{name: "failing", err: expectedErr},
		&mockProcessor{name: "after"},
	)
	data := &domain.PageData{}

	err := p.Process(context.Background(), data)
	if err == nil {
		t.Fatal("expected error from failing processor")
	}
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected wrapped error, got: %v", err)
	}
	if data.FullTitle != "" {
		t.Errorf("expected later processors skipped, got %q", data.FullTitle)
	}
}
