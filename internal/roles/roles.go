package roles

import "strings"

// Role identifies a panel member type.
type Role string

const (
	RoleModerator    Role = "Moderator"
	RoleBioExpert    Role = "BioExpert"
	RoleAIExpert     Role = "AIExpert"
	RoleReviewer     Role = "Reviewer"
	RoleGrantsWriter Role = "GrantsWriter"
)

// experts is the canonical order of the non-Moderator roles.
var experts = []Role{RoleBioExpert, RoleAIExpert, RoleReviewer, RoleGrantsWriter}

// Experts returns the four expert roles in canonical order.
func Experts() []Role {
	out := make([]Role, len(experts))
	copy(out, experts)
	return out
}

// ExpertNames returns the expert role names, the default enabled list for a round.
func ExpertNames() []string {
	out := make([]string, len(experts))
	for i, r := range experts {
		out[i] = string(r)
	}
	return out
}

// Lookup resolves a role by exact name.
func Lookup(name string) (Role, bool) {
	r := Role(name)
	if r == RoleModerator {
		return r, true
	}
	for _, e := range experts {
		if e == r {
			return r, true
		}
	}
	return "", false
}

// Mode controls whether the evidence addendum is appended to every directive.
type Mode string

const (
	ModeFreestyle Mode = "FREESTYLE"
	ModeEvidence  Mode = "EVIDENCE"
)

// ParseMode normalizes user input. Anything that is not EVIDENCE, in any
// casing, is FREESTYLE.
func ParseMode(s string) Mode {
	if strings.ToUpper(strings.TrimSpace(s)) == string(ModeEvidence) {
		return ModeEvidence
	}
	return ModeFreestyle
}
