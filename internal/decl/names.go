package decl

const annotationsPackage = "odimerge.annotations"

// Input annotation surface.
var (
	ContributesTo                  = ClassID{Package: annotationsPackage, Relative: "ContributesTo"}
	ContributesBinding             = ClassID{Package: annotationsPackage, Relative: "ContributesBinding"}
	ContributesMultibinding        = ClassID{Package: annotationsPackage, Relative: "ContributesMultibinding"}
	ContributesSubcomponent        = ClassID{Package: annotationsPackage, Relative: "ContributesSubcomponent"}
	ContributesSubcomponentFactory = ClassID{Package: annotationsPackage, Relative: "ContributesSubcomponent.Factory"}
	MergeComponent                 = ClassID{Package: annotationsPackage, Relative: "MergeComponent"}
	MergeSubcomponent              = ClassID{Package: annotationsPackage, Relative: "MergeSubcomponent"}
	MergeModules                   = ClassID{Package: annotationsPackage, Relative: "MergeModules"}
	MergeInterfaces                = ClassID{Package: annotationsPackage, Relative: "MergeInterfaces"}
	PriorityEnum                   = ClassID{Package: annotationsPackage, Relative: "ContributesBinding.Priority"}

	// SubcomponentMarker is placed on generated subcomponents to record the
	// declaration they were generated from.
	SubcomponentMarker = ClassID{Package: annotationsPackage + ".internal", Relative: "ContributedSubcomponent"}
)

// Output surface consumed by the downstream DI framework.
var (
	Module              = ClassID{Package: "dagger", Relative: "Module"}
	Binds               = ClassID{Package: "dagger", Relative: "Binds"}
	Provides            = ClassID{Package: "dagger", Relative: "Provides"}
	Component           = ClassID{Package: "dagger", Relative: "Component"}
	Subcomponent        = ClassID{Package: "dagger", Relative: "Subcomponent"}
	SubcomponentFactory = ClassID{Package: "dagger", Relative: "Subcomponent.Factory"}
	IntoSet             = ClassID{Package: "dagger.multibindings", Relative: "IntoSet"}
	IntoMap             = ClassID{Package: "dagger.multibindings", Relative: "IntoMap"}
	MapKey              = ClassID{Package: "dagger", Relative: "MapKey"}
	Qualifier           = ClassID{Package: "javax.inject", Relative: "Qualifier"}
	ScopeMeta           = ClassID{Package: "javax.inject", Relative: "Scope"}
	Named               = ClassID{Package: "javax.inject", Relative: "Named"}
	Singleton           = ClassID{Package: "javax.inject", Relative: "Singleton"}
)

// Any is the root type every class implicitly extends. It never counts as a
// direct super type.
var Any = ClassID{Package: "builtin", Relative: "Any"}

// Builtins are the declarations every model knows without a manifest.
func Builtins() []*Declaration {
	annotationClass := func(id ClassID, meta ...ClassID) *Declaration {
		d := &Declaration{ID: id, Kind: KindAnnotationClass, Unit: "builtin"}
		for _, m := range meta {
			d.Annotations = append(d.Annotations, NewAnnotation(m))
		}
		return d
	}
	return []*Declaration{
		{ID: Any, Kind: KindClass, Unit: "builtin"},
		annotationClass(Named, Qualifier),
		annotationClass(Singleton, ScopeMeta),
		annotationClass(Qualifier),
		annotationClass(ScopeMeta),
		annotationClass(MapKey),
		annotationClass(Module),
	}
}
