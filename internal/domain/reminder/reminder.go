package reminder

import (
	"errors"
	"fmt"
	"time"
)

// RetentionWindow is how long a reminder may live after creation before the
// retention sweep removes it, delivered or not.
const RetentionWindow = 45 * 24 * time.Hour

// PreviewLength caps the message when rendered in listings.
const PreviewLength = 100

// DefaultMessage is used when /remind is invoked without a message.
const DefaultMessage = "Reminder!"

var ErrNonPositiveDelay = errors.New("reminder delay must be positive")

type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

type Reminder struct {
	ID        int64     `json:"id"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	DueAt     time.Time `json:"reminder_time"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Delay is the relative offset requested on /remind.
type Delay struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

func (d Delay) Seconds() int64 {
	return int64(d.Days)*86400 + int64(d.Hours)*3600 + int64(d.Minutes)*60
}

func (d Delay) Duration() time.Duration {
	return time.Duration(d.Seconds()) * time.Second
}

func (d Delay) String() string {
	return fmt.Sprintf("%dd %dh %dm", d.Days, d.Hours, d.Minutes)
}

// New builds a pending reminder due at now+delay. Negative components are
// allowed as long as the total stays positive.
func New(guildID, channelID, userID string, delay Delay, message string, now time.Time) (Reminder, error) {
	if delay.Seconds() <= 0 {
		return Reminder{}, ErrNonPositiveDelay
	}
	if message == "" {
		message = DefaultMessage
	}
	now = now.UTC()
	return Reminder{
		GuildID:   guildID,
		ChannelID: channelID,
		UserID:    userID,
		DueAt:     now.Add(delay.Duration()),
		Message:   message,
		CreatedAt: now,
	}, nil
}

func (r Reminder) IsDue(now time.Time) bool {
	return !now.Before(r.DueAt)
}

// Expired reports whether the retention sweep should remove r. Age is measured
// from creation, not from the due time.
func (r Reminder) Expired(now time.Time) bool {
	if r.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(r.CreatedAt) > RetentionWindow
}

// Preview truncates the message to PreviewLength runes for display.
func (r Reminder) Preview() string {
	runes := []rune(r.Message)
	if len(runes) <= PreviewLength {
		return r.Message
	}
	return string(runes[:PreviewLength])
}

// DeliveryKey is the ledger key claimed before a delivery attempt.
func DeliveryKey(id int64) string {
	return fmt.Sprintf("reminder:%d", id)
}

// Find returns the reminder with the given id from list.
func Find(list []Reminder, id int64) (Reminder, bool) {
	for _, r := range list {
		if r.ID == id {
			return r, true
		}
	}
	return Reminder{}, false
}
