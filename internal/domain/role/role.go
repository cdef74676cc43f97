package role

import "errors"

// ErrPermissionDenied is returned by every operation whose Requirement the
// actor does not meet. It is never retryable.
var ErrPermissionDenied = errors.New("permission denied")

// Requirement is the admission rule an operation declares.
type Requirement int

const (
	Any Requirement = iota
	Recruiter
	Director
	RecruiterOrDirector
)

func (r Requirement) String() string {
	switch r {
	case Any:
		return "any"
	case Recruiter:
		return "recruiter"
	case Director:
		return "director"
	case RecruiterOrDirector:
		return "recruiter_or_director"
	default:
		return "unknown"
	}
}

// Gate decides admission from a role-id set against the two configured staff
// role ids. An empty role id matches nobody, so a misconfigured deployment
// degrades to denial.
type Gate struct {
	RecruiterRoleID string
	DirectorRoleID  string
}

func NewGate(recruiterRoleID, directorRoleID string) Gate {
	return Gate{RecruiterRoleID: recruiterRoleID, DirectorRoleID: directorRoleID}
}

// Class is the per-operation classification of an actor.
type Class struct {
	Recruiter bool
	Director  bool
}

func (c Class) Staff() bool { return c.Recruiter || c.Director }

func (g Gate) Classify(actorRoles []string) Class {
	return Class{
		Recruiter: contains(actorRoles, g.RecruiterRoleID),
		Director:  contains(actorRoles, g.DirectorRoleID),
	}
}

func (g Gate) Admits(actorRoles []string, req Requirement) bool {
	c := g.Classify(actorRoles)
	switch req {
	case Any:
		return true
	case Recruiter:
		return c.Recruiter
	case Director:
		return c.Director
	case RecruiterOrDirector:
		return c.Staff()
	default:
		return false
	}
}

// Require is Admits expressed as an error for service call sites.
func (g Gate) Require(actorRoles []string, req Requirement) error {
	if !g.Admits(actorRoles, req) {
		return ErrPermissionDenied
	}
	return nil
}

func (g Gate) IsStaff(actorRoles []string) bool {
	return g.Classify(actorRoles).Staff()
}

// RoleID returns the configured role id behind a single-role requirement.
// Composite requirements have no single role and return "".
func (g Gate) RoleID(req Requirement) string {
	switch req {
	case Recruiter:
		return g.RecruiterRoleID
	case Director:
		return g.DirectorRoleID
	default:
		return ""
	}
}

func contains(roles []string, id string) bool {
	if id == "" {
		return false
	}
	for _, r := range roles {
		if r == id {
			return true
		}
	}
	return false
}
