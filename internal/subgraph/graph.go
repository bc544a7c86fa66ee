package subgraph

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sghaida/odimerge/internal/contrib"
	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/diag"
	"github.com/sghaida/odimerge/internal/hint"
	"github.com/sghaida/odimerge/internal/logging"
	"github.com/sghaida/odimerge/internal/logging/logfields"
	"github.com/sghaida/odimerge/internal/resolve"
	"github.com/sghaida/odimerge/internal/synth"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "subgraph")

// DefaultMaxRounds bounds the expansion when no limit is configured.
const DefaultMaxRounds = 32

// ErrRoundLimit is the cause of the diagnostic raised when the expansion
// does not settle within the configured number of rounds.
var ErrRoundLimit = errors.New("round limit reached")

// State is the phase of the expansion.
type State uint8

const (
	// StateSeed is before the first round: merge targets have not been
	// resolved yet.
	StateSeed State = iota
	// StateExpand is while rounds keep generating subcomponents.
	StateExpand
	// StateDone is after a round found nothing left to generate.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSeed:
		return "seed"
	case StateExpand:
		return "expand"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Options configure a Graph.
type Options struct {
	MaxRounds int
	Namer     synth.Namer
}

// Result is what a finished expansion produced.
type Result struct {
	// Sets are the resolutions of the final round, one per merge request.
	Sets []*resolve.ResolvedBindingSet
	// Generated holds every declaration emitted, in emission order.
	Generated []*decl.Declaration
	// Records are the hint records of every contribution of the unit,
	// including generated ones.
	Records []*hint.Record
	Rounds  int
}

// Graph holds the state shared by both drivers: what has been scanned, what
// has been generated and the round counter. One round is one call to step.
type Graph struct {
	m       decl.Model
	ix      *hint.Index
	engine  *resolve.Engine
	scanner *contrib.Scanner
	synth   *synth.Synthesizer

	maxRounds int
	state     State
	round     int

	scanned   map[decl.ClassID]bool
	processed map[Event]bool
	result    Result
}

// NewGraph prepares an expansion over m. ix holds the upstream records; the
// records of the current unit are appended to it as they are discovered.
func NewGraph(m decl.Model, ix *hint.Index, opts Options) *Graph {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	if opts.Namer.MaxLength <= 0 {
		opts.Namer = synth.DefaultNamer
	}
	return &Graph{
		m:         m,
		ix:        ix,
		engine:    resolve.NewEngine(m, ix),
		scanner:   contrib.NewScanner(m),
		synth:     synth.New(m, opts.Namer),
		maxRounds: opts.MaxRounds,
		scanned:   map[decl.ClassID]bool{},
		processed: map[Event]bool{},
	}
}

// State reports where the expansion is.
func (g *Graph) State() State { return g.state }

// Round is the number of rounds run so far.
func (g *Graph) Round() int { return g.round }

// Result returns what has been produced so far. Sets is only final once the
// state is StateDone.
func (g *Graph) Result() *Result { return &g.result }

// step runs one round: index newly visible contributions, resolve every
// merge target, then either generate the pending subcomponents or, when
// there are none, emit the merged declarations and finish.
func (g *Graph) step() error {
	if g.state == StateDone {
		return nil
	}
	g.round++
	g.result.Rounds = g.round
	roundLog := log.WithField(logfields.Round, g.round)

	if err := g.scan(); err != nil {
		return err
	}
	sets, err := g.resolveAll()
	if err != nil {
		return err
	}
	if err := g.checkReplacements(sets); err != nil {
		return err
	}

	pending := Pending(sets, g.processed)
	if len(pending) == 0 {
		g.result.Sets = sets
		if err := g.finish(sets); err != nil {
			return err
		}
		g.state = StateDone
		roundLog.WithField(logfields.Count, len(g.result.Generated)).Info("Merging finished")
		return nil
	}
	if g.round >= g.maxRounds {
		names := make([]string, len(pending))
		for i, spec := range pending {
			names[i] = EventOf(spec).String()
		}
		return diag.At(diag.KindStructural, pending[0].Pos, pending[0].Original,
			diag.RoundLimit(g.round, names)).WithCause(ErrRoundLimit)
	}

	g.state = StateExpand
	var emitted []*decl.Declaration
	for i := range pending {
		spec := pending[i]
		if err := g.complete(&spec); err != nil {
			return err
		}
		decls, err := g.synth.Subcomponent(spec)
		if err != nil {
			return err
		}
		g.processed[EventOf(spec)] = true
		emitted = append(emitted, decls...)
		roundLog.WithFields(logrus.Fields{
			logfields.Target:      spec.Parent.String(),
			logfields.Declaration: spec.GeneratedName.String(),
		}).Debug("Generated subcomponent")
	}
	if err := g.emit(emitted); err != nil {
		return err
	}
	roundLog.WithField(logfields.Count, len(pending)).Info("Round generated subcomponents")
	return nil
}

// scan indexes the contributions of declarations that became visible since
// the previous round.
func (g *Graph) scan() error {
	var fresh []*decl.Declaration
	for _, d := range g.scanner.Contributors() {
		if !g.scanned[d.ID] {
			g.scanned[d.ID] = true
			fresh = append(fresh, d)
		}
	}
	cs, err := g.scanner.ScanAll(fresh)
	if err != nil {
		return err
	}
	records := contrib.ToRecords(cs)
	if err := g.ix.Add(records...); err != nil {
		return err
	}
	g.result.Records = append(g.result.Records, records...)
	return nil
}

func (g *Graph) resolveAll() ([]*resolve.ResolvedBindingSet, error) {
	var sets []*resolve.ResolvedBindingSet
	for _, target := range resolve.Targets(g.m) {
		reqs, err := resolve.Requests(g.m, target)
		if err != nil {
			return nil, err
		}
		for _, req := range reqs {
			set, err := g.engine.Resolve(req)
			if err != nil {
				return nil, err
			}
			sets = append(sets, set)
		}
	}
	return sets, nil
}

// checkReplacements rejects a subcomponent that replaces one whose code was
// generated in an earlier round.
func (g *Graph) checkReplacements(sets []*resolve.ResolvedBindingSet) error {
	for _, set := range sets {
		for _, spec := range set.Subcomponents {
			for _, r := range spec.Replaces {
				if g.processed[Event{Trigger: spec.Parent, Original: r}] {
					return diag.At(diag.KindStructural, spec.Pos, spec.Original,
						diag.ReplacedAlreadyGenerated(spec.Original, r))
				}
			}
		}
	}
	return nil
}

// finish emits the merged module and merged target of every merge target.
// Sets resolved for the same target under several scopes are combined.
func (g *Graph) finish(sets []*resolve.ResolvedBindingSet) error {
	var order []decl.ClassID
	byTarget := map[decl.ClassID][]*resolve.ResolvedBindingSet{}
	for _, set := range sets {
		t := set.Request.Target
		if _, ok := byTarget[t]; !ok {
			order = append(order, t)
		}
		byTarget[t] = append(byTarget[t], set)
	}

	var out []*decl.Declaration
	for _, t := range order {
		set := resolve.Combine(byTarget[t])
		module := g.synth.Module(set)
		if module != nil {
			out = append(out, module)
		}
		target, err := g.synth.Target(set, module)
		if err != nil {
			return err
		}
		out = append(out, target)
	}
	return g.emit(out)
}

func (g *Graph) emit(decls []*decl.Declaration) error {
	if len(decls) == 0 {
		return nil
	}
	if err := g.m.Emit(decls...); err != nil {
		return errors.Wrapf(err, "round %d", g.round)
	}
	g.result.Generated = append(g.result.Generated, decls...)
	return nil
}
