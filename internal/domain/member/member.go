package member

// Member is a guild member as seen by a single operation. Roles are read fresh
// from the gateway every time and are never cached across operations.
type Member struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Nick     string   `json:"nick,omitempty"`
	Bot      bool     `json:"bot"`
	Roles    []string `json:"roles"`
}

func (m Member) Mention() string {
	return "<@" + m.ID + ">"
}

// DisplayName prefers the guild nickname over the account username.
func (m Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	return m.Username
}

func (m Member) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}
