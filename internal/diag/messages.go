package diag

import (
	"fmt"
	"strings"

	"github.com/sghaida/odimerge/internal/decl"
)

// -------------------------
// Contribution errors
// -------------------------

func NotPublic(fq decl.ClassID) string {
	return fmt.Sprintf("%s is contributed to the Dagger graph, but the module is not public. "+
		"Only public modules are supported.", fq)
}

func MultipleQualifiers() string {
	return "Classes can be annotated with only one qualifier."
}

func DuplicateScope(fq decl.ClassID, scopes []decl.ClassID) string {
	names := make([]string, len(scopes))
	for i, s := range scopes {
		names[i] = s.SimpleName()
	}
	return fmt.Sprintf("%s contributes multiple times to the same scope: [%s]. "+
		"Contributing multiple times to the same scope is forbidden and all scopes must be distinct.",
		fq, strings.Join(names, ", "))
}

func DuplicateMergeScope(fq decl.ClassID, scopes []decl.ClassID) string {
	names := make([]string, len(scopes))
	for i, s := range scopes {
		names[i] = s.SimpleName()
	}
	return fmt.Sprintf("%s merges multiple times to the same scope: [%s]. "+
		"Merging multiple times to the same scope is forbidden and all scopes must be distinct.",
		fq, strings.Join(names, ", "))
}

func DuplicateScopeAndBoundType(fq decl.ClassID, bound []decl.ClassID) string {
	names := make([]string, len(bound))
	for i, b := range bound {
		names[i] = b.SimpleName()
	}
	return fmt.Sprintf("%s contributes multiple times to the same scope using the same bound type: [%s]. "+
		"Contributing multiple times to the same scope with the same bound type is forbidden and "+
		"all scope - bound type combinations must be distinct.", fq, strings.Join(names, ", "))
}

func MultipleMapKeys(annotation decl.ClassID) string {
	return fmt.Sprintf("Classes annotated with @%s may not use more than one @MapKey.", annotation.SimpleName())
}

func MissingBoundType(fq, annotation decl.ClassID) string {
	return fmt.Sprintf("%s contributes a binding, but does not specify the bound type. "+
		"This is only allowed with exactly one direct super type. If there are multiple or none, "+
		"then the bound type must be explicitly defined in the @%s annotation.", fq, annotation.SimpleName())
}

func TypeParameterBinding(fq decl.ClassID, bound decl.Type, params []string) string {
	return fmt.Sprintf("Class %s binds %s, but the bound type contains type parameter(s) <%s>. "+
		"Type parameters in bindings are not supported. This binding needs to be contributed in a "+
		"Dagger module manually.", fq, bound.Class, strings.Join(params, ", "))
}

func NotSubtype(fq decl.ClassID, bound decl.Type) string {
	return fmt.Sprintf("%s contributes a binding for %s, but doesn't extend this type.", fq, bound)
}

func ContributesToNotInterfaceOrModule(fq decl.ClassID) string {
	return fmt.Sprintf("%s is annotated with @ContributesTo, but this class is neither an interface "+
		"nor a Dagger module. Did you forget to add @Module?", fq)
}

func MissingScope(fq, annotation decl.ClassID) string {
	return fmt.Sprintf("Couldn't find scope for %s on %s.", annotation, fq)
}

func UnknownPriority(fq decl.ClassID, name string) string {
	return fmt.Sprintf("%s uses unknown priority %s.", fq, name)
}

// -------------------------
// Resolution errors
// -------------------------

// DuplicateBinding lists the tied classes sorted by name so the message is
// stable even though discovery order is not.
func DuplicateBinding(bound decl.Type, priority string, classes []decl.ClassID) string {
	return fmt.Sprintf("There are multiple contributed bindings with the same bound type and priority. "+
		"The bound type is %s. The priority is %s. The contributed binding classes are: %s",
		bound, priority, bracketFQ(sortedFQ(classes)))
}

func ExcludeScopeMismatch(fq decl.ClassID, scopes []decl.ClassID, excluded decl.ClassID) string {
	return fmt.Sprintf("%s with scopes %s wants to exclude %s, but the excluded class isn't "+
		"contributed to the same scope.", fq, bracketFQ(scopes), excluded)
}

func ReplaceScopeMismatch(fq decl.ClassID, scopes []decl.ClassID, replaced decl.ClassID) string {
	return fmt.Sprintf("%s with scopes %s wants to replace %s, but the replaced class isn't "+
		"contributed to the same scope.", fq, bracketFQ(scopes), replaced)
}

func ReplaceNotModule(fq, replaced decl.ClassID) string {
	return fmt.Sprintf("%s wants to replace %s, but the class being replaced is not a Dagger module.", fq, replaced)
}

func IncludeAndExclude(fq decl.ClassID, both []decl.ClassID) string {
	return fmt.Sprintf("%s includes and excludes modules at the same time: %s", fq, joinFQ(both))
}

func MergeTargetNotInterface() string {
	return "Dagger components (or classes annotated with @MergeInterfaces) must be interfaces."
}

func ExcludesSupertypes(fq decl.ClassID, supertypes []decl.ClassID) string {
	return fmt.Sprintf("%s excludes types that it implements or extends. These types cannot be excluded. "+
		"Look at all the super types to find these classes: %s.", fq, joinFQ(supertypes))
}

// ReplaceCycle renders the cycle path, first element repeated at the end.
func ReplaceCycle(path []decl.ClassID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = id.String()
	}
	return fmt.Sprintf("Replacement cycle detected: %s.", strings.Join(parts, " -> "))
}

// -------------------------
// Subcomponent errors
// -------------------------

func ReplacedAlreadyGenerated(fq, replaced decl.ClassID) string {
	return fmt.Sprintf("%s tries to replace %s, but the code for %s was already generated. "+
		"This is not supported.", fq, replaced, replaced)
}

func FactoryNotAbstract() string {
	return "A factory must be an interface or an abstract class."
}

func FactoryFunctionCount(subcomponent decl.ClassID) string {
	return fmt.Sprintf("A factory must have exactly one abstract function returning the subcomponent %s.", subcomponent)
}

func MultipleFactories(fq decl.ClassID) string {
	return fmt.Sprintf("Expected zero or one factory within %s.", fq)
}

func MultipleParentComponents(fq decl.ClassID) string {
	return fmt.Sprintf("Expected zero or one parent component interface within %s being contributed "+
		"to the parent scope.", fq)
}

func MultipleParentFunctions(fq decl.ClassID) string {
	return fmt.Sprintf("Expected zero or one function returning the subcomponent %s.", fq)
}

func RoundLimit(rounds int, pending []string) string {
	return fmt.Sprintf("Contributed subcomponents did not reach a fixed point after %d rounds; pending: [%s].",
		rounds, strings.Join(pending, ", "))
}

func NameTooLong(length int, name string) string {
	return fmt.Sprintf("Class name is too long: %d  --  %s", length, name)
}
