// Package logfields defines the logging field names shared across packages.
package logfields

const (
	// LogSubsys is the field denoting the subsystem when logging
	LogSubsys = "subsys"

	// Unit is the name of the compilation unit being processed
	Unit = "unit"

	// Scope is the canonical name of a merge scope
	Scope = "scope"

	// Target is the declaration carrying a merge annotation
	Target = "target"

	// Declaration is a contributing or synthesized declaration
	Declaration = "declaration"

	// Kind is a contribution or hint kind
	Kind = "kind"

	// Round is the generation round number, starting at 1
	Round = "round"

	// Artifact is the URL of an upstream hint artifact
	Artifact = "artifact"

	// Count is a generic counter
	Count = "count"

	// Position is a file:line:column source position
	Position = "position"

	// URL is a storage location
	URL = "url"
)
