package subgraph

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/hint"
)

// Builder drives the expansion in process. The model must make emitted
// declarations visible immediately, as the in-process model does, so all
// rounds run inside one call.
type Builder struct {
	g *Graph
}

// NewBuilder expands the subcomponents of m in one call to Run.
func NewBuilder(m decl.Model, ix *hint.Index, opts Options) *Builder {
	return &Builder{g: NewGraph(m, ix, opts)}
}

// Run executes rounds until the expansion is done, the round limit is hit or
// ctx is cancelled.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	for b.g.State() != StateDone {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "round %d", b.g.Round())
		}
		if err := b.g.step(); err != nil {
			return nil, err
		}
	}
	return b.g.Result(), nil
}

// Graph exposes the underlying state, mostly for tests.
func (b *Builder) Graph() *Graph { return b.g }

// RoundModel is a model whose emitted declarations only become visible when
// the host starts the next round.
type RoundModel interface {
	decl.Model
	NextRound() ([]*decl.Declaration, bool)
}

// Processor drives the expansion one host round at a time. The host calls
// Process once per round and advances the model in between.
type Processor struct {
	g *Graph
}

// NewProcessor expands the subcomponents of m one host round at a time.
func NewProcessor(m decl.Model, ix *hint.Index, opts Options) *Processor {
	return &Processor{g: NewGraph(m, ix, opts)}
}

// Process runs one round and reports whether the expansion is done.
func (p *Processor) Process(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Wrapf(err, "round %d", p.g.Round())
	}
	if err := p.g.step(); err != nil {
		return false, err
	}
	return p.g.State() == StateDone, nil
}

// Result returns what the rounds processed so far produced.
func (p *Processor) Result() *Result { return p.g.Result() }

// Graph exposes the expansion state shared with the in-process driver.
func (p *Processor) Graph() *Graph { return p.g }

// RunRounds plays the host: it calls Process and advances m until the
// expansion is done. It returns the result of the last round.
func RunRounds(ctx context.Context, m RoundModel, p *Processor) (*Result, error) {
	for {
		done, err := p.Process(ctx)
		if err != nil {
			return nil, err
		}
		// Publish what the round emitted, including the final merged
		// declarations.
		m.NextRound()
		if done {
			return p.Result(), nil
		}
	}
}
