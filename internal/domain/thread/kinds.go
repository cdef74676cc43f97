package thread

import (
	"sort"
	"strings"
	"time"

	"github.com/alanyang/threadkeeper/internal/domain/role"
)

// KindSpec describes how threads of one kind are named, who may open them and
// which staff role is pulled in on creation.
type KindSpec struct {
	// Prefix is prepended to the actor name, joined with "-".
	Prefix string

	// Label is the human word used in audit lines ("recruitment", "officer").
	Label string

	// Open gates who may start a thread of this kind.
	Open role.Requirement

	// Staff is the role whose members are added after creation. Must be a
	// single-role requirement.
	Staff role.Requirement

	// Cooldown is the per-user interval between two opens of this kind.
	Cooldown time.Duration
}

// Kinds maps each thread kind to its spec.
type Kinds map[Kind]KindSpec

// DefaultKinds is the recruitment + officer pair. Adding a kind means adding
// an entry here and a slash command that opens it.
var DefaultKinds = Kinds{
	KindRecruitment: {
		Prefix:   "Recruit",
		Label:    "recruitment",
		Open:     role.Any,
		Staff:    role.Recruiter,
		Cooldown: 300 * time.Second,
	},
	KindOfficer: {
		Prefix:   "officer",
		Label:    "officer",
		Open:     role.RecruiterOrDirector,
		Staff:    role.Director,
		Cooldown: 600 * time.Second,
	},
}

func (k Kinds) Spec(kind Kind) (KindSpec, bool) {
	s, ok := k[kind]
	return s, ok
}

// Prefixes returns the lowercase "<prefix>-" filters used when listing
// workflow threads, sorted for stable output.
func (k Kinds) Prefixes() []string {
	out := make([]string, 0, len(k))
	for _, s := range k {
		out = append(out, strings.ToLower(s.Prefix)+"-")
	}
	sort.Strings(out)
	return out
}

// WithCooldowns returns a copy of k with the given per-kind cooldowns applied.
// Kinds absent from overrides keep their default.
func (k Kinds) WithCooldowns(overrides map[Kind]time.Duration) Kinds {
	out := make(Kinds, len(k))
	for kind, s := range k {
		if d, ok := overrides[kind]; ok && d > 0 {
			s.Cooldown = d
		}
		out[kind] = s
	}
	return out
}
