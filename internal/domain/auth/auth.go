package auth

import "time"

// Record is the worker's view of one member's EVE SSO link.
type Record struct {
	DiscordID         string    `json:"discord_id"`
	CharacterName     string    `json:"eve_character_name"`
	CorporationTicker string    `json:"eve_corporation_ticker"`
	AllianceTicker    string    `json:"eve_alliance_ticker,omitempty"`
	TokenExpiresAt    time.Time `json:"token_expires_at"`
}

func (r Record) Expired(now time.Time) bool {
	return !r.TokenExpiresAt.IsZero() && !now.Before(r.TokenExpiresAt)
}

func (r Record) Nickname() string {
	return Nickname(r.AllianceTicker, r.CorporationTicker, r.CharacterName)
}

// Identity is a freshly refreshed character identity.
type Identity struct {
	DiscordID     string `json:"discord_id"`
	Alliance      string `json:"alliance,omitempty"`
	Corporation   string `json:"corporation"`
	CharacterName string `json:"character_name"`
}

func (i Identity) Nickname() string {
	return Nickname(i.Alliance, i.Corporation, i.CharacterName)
}

// RefreshResult splits members into refreshed identities and ids whose tokens
// could not be refreshed.
type RefreshResult struct {
	Refreshed []Identity `json:"refreshed"`
	Failed    []string   `json:"failed"`
}

// MaxNicknameLength is the platform limit on guild nicknames.
const MaxNicknameLength = 32

// Nickname formats "[ALLIANCE] CORP | Name", dropping the alliance part when
// there is none. The result is cut to MaxNicknameLength runes.
func Nickname(alliance, corporation, character string) string {
	nick := corporation + " | " + character
	if alliance != "" {
		nick = "[" + alliance + "] " + nick
	}
	runes := []rune(nick)
	if len(runes) > MaxNicknameLength {
		return string(runes[:MaxNicknameLength])
	}
	return nick
}
