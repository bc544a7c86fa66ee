// Package decl is the declaration model every other package works against.
//
// A host integration exposes the declarations of the unit being compiled and
// of its binary dependencies through the Model interface. Two integrations ship
// with the module:
//
//   - memory: an in-process model, fed directly by a compiler extension. Emitted
//     declarations are visible immediately.
//   - manifest: a round based model fed from YAML or JSON manifests. Emitted
//     declarations are serialized and only become visible in the next round,
//     the way an out-of-process symbol processor sees generated files.
//
// Both must produce identical resolution results. Everything that interprets
// declarations (subtyping, meta-annotations, canonical identities) lives in this
// package as functions over Model so that neither integration can drift.
package decl
