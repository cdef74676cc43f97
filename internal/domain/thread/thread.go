package thread

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindRecruitment Kind = "recruitment"
	KindOfficer     Kind = "officer"
)

type State string

const (
	StateActive   State = "active"
	StateArchived State = "archived"
	StateLocked   State = "locked"
)

// Thread is a private discussion thread as the gateway reports it.
type Thread struct {
	ID          string    `json:"id"`
	GuildID     string    `json:"guild_id"`
	ParentID    string    `json:"parent_id"`
	Name        string    `json:"name"`
	Archived    bool      `json:"archived"`
	Locked      bool      `json:"locked"`
	MemberCount int       `json:"member_count"`
	ArchivedAt  time.Time `json:"archived_at,omitempty"`
}

// State collapses the archived/locked flags. Locked always implies archived.
func (t Thread) State() State {
	switch {
	case t.Locked:
		return StateLocked
	case t.Archived:
		return StateArchived
	default:
		return StateActive
	}
}

func (t Thread) Mention() string {
	return "<#" + t.ID + ">"
}

// CanonicalName builds the thread name for an actor opening a thread of the
// given kind.
func CanonicalName(spec KindSpec, actorName string) string {
	return spec.Prefix + "-" + actorName
}

// SameName reports whether two thread names collide under the
// case-insensitive uniqueness rule.
func SameName(a, b string) bool {
	return strings.EqualFold(a, b)
}

// HasPrefix reports whether name starts with any of prefixes, ignoring case.
func HasPrefix(name string, prefixes []string) bool {
	lower := strings.ToLower(name)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

var ErrConflict = errors.New("thread already exists")

// ConflictError reports a name collision with an existing thread.
type ConflictError struct {
	Name     string
	Archived bool
}

func (e *ConflictError) Error() string {
	if e.Archived {
		return fmt.Sprintf("thread %q already exists (archived)", e.Name)
	}
	return fmt.Sprintf("thread %q already exists", e.Name)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
