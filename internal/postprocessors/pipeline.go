// Package postprocessors transforms extracted page data before storage.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PagePostProcessor = (*Pipeline)(nil)

// Pipeline chains multiple processors and runs them in order.
type Pipeline struct {
	processors []driven.PagePostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PagePostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return "pipeline"
}

// Process runs the page data through all processors in order. Each
// processor sees the changes of the ones before it.
func (p *Pipeline) Process(ctx context.Context, data *domain.PageData) error {
	if data == nil {
		return fmt.Errorf("page data is nil")
	}

	for _, processor := range p.processors {
		if err := processor.Process(ctx, data); err != nil {
			return fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PagePostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
