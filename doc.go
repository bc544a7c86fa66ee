// Package odimerge merges contributed dependency injection declarations into
// components across separately compiled units.
//
// Declarations annotated with @ContributesTo, @ContributesBinding,
// @ContributesMultibinding and @ContributesSubcomponent are indexed per scope
// and published as hint artifacts. A unit holding a merge target
// (@MergeComponent, @MergeSubcomponent, @MergeModules or @MergeInterfaces)
// reads the hints of every upstream unit, resolves what belongs to its scope
// and emits the merged declarations the downstream DI framework consumes.
// Contributed subcomponents are expanded round by round until no merge target
// gains a new one.
//
// Layout:
//   - cmd/odimerge: the command line driver
//   - internal/decl: the declaration model and its in-process and manifest backed implementations
//   - internal/contrib, internal/hint: contribution scanning and hint artifacts
//   - internal/resolve, internal/subgraph, internal/synth: resolution, round expansion and output
//   - examples/shop: a two unit walkthrough
package odimerge
