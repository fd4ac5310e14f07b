package roles

// Registry maps each role to its base directive. A Registry is built once at
// startup and never mutated; pass it by pointer to the components that need it.
type Registry struct {
	directives map[Role]string
}

// DefaultRegistry returns a Registry with the built-in directives.
func DefaultRegistry() *Registry {
	return &Registry{
		directives: map[Role]string{
			RoleModerator:    moderatorDirective,
			RoleBioExpert:    bioExpertDirective,
			RoleAIExpert:     aiExpertDirective,
			RoleReviewer:     reviewerDirective,
			RoleGrantsWriter: grantsWriterDirective,
		},
	}
}

// NewRegistry returns the default registry with per-role overrides applied.
// Override keys that are not known role names and empty values are ignored.
func NewRegistry(overrides map[string]string) *Registry {
	r := DefaultRegistry()
	for name, text := range overrides {
		role, ok := Lookup(name)
		if !ok || text == "" {
			continue
		}
		r.directives[role] = text
	}
	return r
}

// Base returns the role's directive without any mode addendum.
func (r *Registry) Base(role Role) string {
	return r.directives[role]
}

// DirectiveFor returns the role's directive for the given mode. The evidence
// addendum is appended exactly once iff mode is EVIDENCE.
func (r *Registry) DirectiveFor(role Role, mode Mode) string {
	base := r.directives[role]
	if mode == ModeEvidence {
		return base + EvidenceAddendum
	}
	return base
}

// DirectiveFor resolves a directive from the default registry. The mode is
// taken as raw user input and normalized.
func DirectiveFor(role Role, mode string) string {
	return defaultRegistry.DirectiveFor(role, ParseMode(mode))
}

var defaultRegistry = DefaultRegistry()
