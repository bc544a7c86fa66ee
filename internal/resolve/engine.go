package resolve

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sghaida/odimerge/internal/contrib"
	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/diag"
	"github.com/sghaida/odimerge/internal/hint"
	"github.com/sghaida/odimerge/internal/logging"
	"github.com/sghaida/odimerge/internal/logging/logfields"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "resolve")

// ErrReplaceCycle is the cause of the diagnostic raised when replaces edges
// form a cycle.
var ErrReplaceCycle = errors.New("replacement cycle")

// Engine resolves merge requests against an index. The model is consulted
// for the merge target itself and for module checks; contributions always
// come from the index, whether they were declared upstream or in the
// current unit.
type Engine struct {
	m  decl.Model
	ix *hint.Index

	decoded map[*hint.Record][]contrib.Contribution
}

// NewEngine resolves against m. Contributions are read from ix, which the
// caller keeps filled with every visible record.
func NewEngine(m decl.Model, ix *hint.Index) *Engine {
	return &Engine{m: m, ix: ix, decoded: map[*hint.Record][]contrib.Contribution{}}
}

// Index returns the index the engine reads.
func (e *Engine) Index() *hint.Index { return e.ix }

// Contributions returns every contribution to scope, in index order.
func (e *Engine) Contributions(scope decl.ClassID) ([]contrib.Contribution, error) {
	var out []contrib.Contribution
	for _, r := range e.ix.ForScope(scope) {
		cs, ok := e.decoded[r]
		if !ok {
			var err error
			if cs, err = contrib.FromRecord(r); err != nil {
				return nil, err
			}
			e.decoded[r] = cs
		}
		for _, c := range cs {
			if c.Scope == scope {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// Resolve merges everything contributed to the request's scope.
func (e *Engine) Resolve(req MergeRequest) (*ResolvedBindingSet, error) {
	scopedLog := log.WithFields(logrus.Fields{
		logfields.Target: req.Target.String(),
		logfields.Scope:  req.Scope.String(),
	})

	if err := e.checkRequest(req); err != nil {
		return nil, err
	}
	all, err := e.Contributions(req.Scope)
	if err != nil {
		return nil, err
	}
	kept, err := exclude(req, all)
	if err != nil {
		return nil, err
	}
	if kept, err = e.replace(req, kept, all); err != nil {
		return nil, err
	}

	set := &ResolvedBindingSet{Request: req}
	var single []contrib.Contribution
	modules := map[decl.ClassID]bool{}
	for _, id := range req.Included {
		modules[id] = true
	}
	for _, c := range kept {
		switch c.Kind {
		case hint.KindModule:
			if req.Mode.MergesModules() {
				modules[c.Declaration] = true
			}
		case hint.KindInterface:
			if req.Mode.MergesInterfaces() {
				set.Interfaces = appendUnique(set.Interfaces, c.Declaration)
			}
		case hint.KindBinding:
			if req.Mode.MergesModules() {
				single = append(single, c)
			}
		case hint.KindMultibinding:
			if req.Mode.MergesModules() {
				set.MultibindingMethods = append(set.MultibindingMethods, bindingSpec(c))
			}
		case hint.KindSubcomponent:
			if req.Mode == ModeComponent || req.Mode == ModeSubcomponent {
				set.Subcomponents = append(set.Subcomponents, subcomponentSpec(req, c))
			}
		}
	}
	if set.BindingMethods, err = pickWinners(req, single); err != nil {
		return nil, err
	}
	for id := range modules {
		set.Modules = append(set.Modules, id)
	}
	sortSet(set)

	scopedLog.WithField(logfields.Count, len(kept)).Debug("Resolved merge request")
	return set, nil
}

// checkRequest validates the merge target against its own arguments.
func (e *Engine) checkRequest(req MergeRequest) error {
	target, err := decl.MustLookup(e.m, req.Target)
	if err != nil {
		return err
	}
	if req.Mode.RequiresInterface() && !target.IsInterface() {
		return diag.At(diag.KindUser, req.Pos, req.Target, diag.MergeTargetNotInterface())
	}
	if both := intersect(req.Included, req.Excluded); len(both) > 0 {
		return diag.At(diag.KindUser, req.Pos, req.Target, diag.IncludeAndExclude(req.Target, both))
	}
	if req.Mode.MergesInterfaces() {
		if supers := intersect(req.Excluded, decl.AllSupertypes(e.m, req.Target)); len(supers) > 0 {
			return diag.At(diag.KindUser, req.Pos, req.Target, diag.ExcludesSupertypes(req.Target, supers))
		}
	}
	return nil
}

// exclude drops the contributions named by the request. Every excluded class
// must actually contribute to the scope.
func exclude(req MergeRequest, all []contrib.Contribution) ([]contrib.Contribution, error) {
	for _, id := range req.Excluded {
		if !anyMatches(all, id) {
			return nil, diag.At(diag.KindScopeMismatch, req.Pos, req.Target,
				diag.ExcludeScopeMismatch(req.Target, []decl.ClassID{req.Scope}, id))
		}
	}
	out := make([]contrib.Contribution, 0, len(all))
	for _, c := range all {
		if c.Excludable && matchesAny(&c, req.Excluded) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// replace validates the replaces edges of the kept contributions and drops
// every contribution they name. The removal only applies to this scope.
func (e *Engine) replace(req MergeRequest, kept, all []contrib.Contribution) ([]contrib.Contribution, error) {
	var replaced []decl.ClassID
	for i := range kept {
		c := &kept[i]
		for _, r := range c.Replaces {
			if !anyMatches(all, r) {
				return nil, diag.At(diag.KindScopeMismatch, c.Pos, c.Declaration,
					diag.ReplaceScopeMismatch(c.Declaration, c.Scopes, r))
			}
			if (c.Kind == hint.KindModule || c.IsBinding()) && !e.isModuleLike(all, r) {
				return nil, diag.At(diag.KindUser, c.Pos, c.Declaration, diag.ReplaceNotModule(c.Declaration, r))
			}
			replaced = appendUnique(replaced, r)
		}
	}
	if err := checkCycles(kept); err != nil {
		return nil, err
	}
	if len(replaced) == 0 {
		return kept, nil
	}
	out := make([]contrib.Contribution, 0, len(kept))
	for _, c := range kept {
		if matchesAny(&c, replaced) {
			log.WithFields(logrus.Fields{
				logfields.Declaration: c.Declaration.String(),
				logfields.Scope:       req.Scope.String(),
			}).Debug("Dropping replaced contribution")
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// isModuleLike reports whether id ends up as a module downstream: a declared
// module or a contributed binding.
func (e *Engine) isModuleLike(all []contrib.Contribution, id decl.ClassID) bool {
	for i := range all {
		c := &all[i]
		if c.Matches(id) && (c.Kind == hint.KindModule || c.IsBinding()) {
			return true
		}
	}
	return decl.IsModule(e.m, id)
}

// pickWinners groups single bindings by bound type and qualifier and keeps
// the strictly highest priority of each group.
func pickWinners(req MergeRequest, single []contrib.Contribution) ([]BindingSpec, error) {
	type groupKey struct {
		bound     string
		qualifier string
	}
	var order []groupKey
	groups := map[groupKey][]contrib.Contribution{}
	for _, c := range single {
		k := groupKey{bound: c.BoundType.String(), qualifier: c.QualifierKey()}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	out := make([]BindingSpec, 0, len(order))
	for _, k := range order {
		candidates := groups[k]
		best := candidates[0].Priority
		for _, c := range candidates[1:] {
			if c.Priority > best {
				best = c.Priority
			}
		}
		var tied []contrib.Contribution
		for _, c := range candidates {
			if c.Priority == best {
				tied = append(tied, c)
			}
		}
		if len(tied) > 1 {
			classes := make([]decl.ClassID, len(tied))
			for i, c := range tied {
				classes[i] = c.Declaration
			}
			return nil, diag.At(diag.KindUser, req.Pos, req.Target,
				diag.DuplicateBinding(tied[0].BoundType, best.String(), classes))
		}
		out = append(out, bindingSpec(tied[0]))
	}
	return out, nil
}

func bindingSpec(c contrib.Contribution) BindingSpec {
	return BindingSpec{
		BoundType:      c.BoundType,
		Qualifier:      c.EffectiveQualifier(),
		Contributing:   c.Declaration,
		IsMultibinding: c.Kind == hint.KindMultibinding,
		MapKey:         c.MapKey,
		Object:         c.Object,
		Priority:       c.Priority,
		ScopeIndex:     c.ScopeIndex,
	}
}

func subcomponentSpec(req MergeRequest, c contrib.Contribution) SubcomponentSpec {
	s := SubcomponentSpec{
		Original:    c.Declaration,
		ParentScope: c.Scope,
		Replaces:    c.Replaces,
		Pos:         c.Pos,
		Parent:      req.Target,
	}
	if c.Subcomponent != nil {
		s.Scope = c.Subcomponent.Scope
		s.Modules = c.Subcomponent.Modules
		s.Exclude = c.Subcomponent.Exclude
	}
	return s
}

// sortSet orders every list on its canonical key: the fully qualified name,
// then the position of the scope on the contributing declaration.
func sortSet(set *ResolvedBindingSet) {
	sortIDs(set.Modules)
	sortIDs(set.Interfaces)
	sortBindings(set.BindingMethods)
	sortBindings(set.MultibindingMethods)
	sort.SliceStable(set.Subcomponents, func(i, j int) bool {
		return set.Subcomponents[i].Original.Less(set.Subcomponents[j].Original)
	})
}

func sortIDs(ids []decl.ClassID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}

func sortBindings(bs []BindingSpec) {
	sort.SliceStable(bs, func(i, j int) bool {
		a, b := bs[i], bs[j]
		if a.Contributing != b.Contributing {
			return a.Contributing.Less(b.Contributing)
		}
		if a.ScopeIndex != b.ScopeIndex {
			return a.ScopeIndex < b.ScopeIndex
		}
		if x, y := a.BoundType.String(), b.BoundType.String(); x != y {
			return x < y
		}
		return qualifierKey(a.Qualifier) < qualifierKey(b.Qualifier)
	})
}

func qualifierKey(q *decl.Annotation) string {
	if q == nil {
		return ""
	}
	return q.Key()
}

func anyMatches(cs []contrib.Contribution, id decl.ClassID) bool {
	for i := range cs {
		if cs[i].Matches(id) {
			return true
		}
	}
	return false
}

func matchesAny(c *contrib.Contribution, ids []decl.ClassID) bool {
	for _, id := range ids {
		if c.Matches(id) {
			return true
		}
	}
	return false
}

func appendUnique(ids []decl.ClassID, id decl.ClassID) []decl.ClassID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// intersect returns the members of a also in b, in the order of a.
func intersect(a, b []decl.ClassID) []decl.ClassID {
	in := map[decl.ClassID]bool{}
	for _, id := range b {
		in[id] = true
	}
	var out []decl.ClassID
	for _, id := range a {
		if in[id] {
			out = appendUnique(out, id)
		}
	}
	return out
}
