package thread

import (
	"errors"
	"fmt"

	domainthread "github.com/alanyang/threadkeeper/internal/domain/thread"
	"github.com/alanyang/threadkeeper/internal/port/gateway"
)

var (
	ErrConflict           = domainthread.ErrConflict
	ErrNotAThread         = errors.New("channel is not a thread")
	ErrNotInThread        = errors.New("member is not in this thread")
	ErrStaffProtected     = errors.New("staff members can only remove themselves")
	ErrNotFound           = errors.New("thread not found")
	ErrPlatformPermission = errors.New("missing platform permission")
	ErrUnknownKind        = errors.New("unknown thread kind")
)

// platformErr wraps a gateway error for op, turning a platform refusal into
// ErrPlatformPermission so callers can tell it apart from an outage.
func platformErr(op string, err error) error {
	if errors.Is(err, gateway.ErrForbidden) {
		return fmt.Errorf("%s: %w", op, ErrPlatformPermission)
	}
	return fmt.Errorf("%s: %w", op, err)
}
