package workerapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alanyang/threadkeeper/internal/domain/auth"
	portauth "github.com/alanyang/threadkeeper/internal/port/auth"
)

var _ portauth.Directory = (*Auth)(nil)

type wireAuthRecord struct {
	DiscordID         snowflake `json:"discord_id"`
	CharacterName     string    `json:"eve_character_name"`
	CorporationTicker string    `json:"eve_corporation_ticker"`
	AllianceTicker    string    `json:"eve_alliance_ticker"`
	TokenExpiresAt    string    `json:"token_expires_at"`
}

// Auth is the EVE SSO half of the worker API. It implements
// port/auth.Directory.
type Auth struct {
	c *Client
}

func (c *Client) Auth() *Auth { return &Auth{c: c} }

// domain converts a wire record. An unparseable expiry is left zero and
// logged so one bad row does not hide every other record.
func (w wireAuthRecord) domain(ctx context.Context) auth.Record {
	expires, err := parseTime(w.TokenExpiresAt)
	if err != nil {
		slog.WarnContext(ctx, "workerapi: ignoring malformed timestamp", "discord_id", string(w.DiscordID), "field", "token_expires_at", "error", err)
		expires = time.Time{}
	}
	return auth.Record{
		DiscordID:         string(w.DiscordID),
		CharacterName:     w.CharacterName,
		CorporationTicker: w.CorporationTicker,
		AllianceTicker:    w.AllianceTicker,
		TokenExpiresAt:    expires,
	}
}

func (a *Auth) Login(ctx context.Context, discordID, username string) (string, error) {
	body := map[string]string{
		"discord_id":       discordID,
		"discord_username": username,
	}
	var out struct {
		AuthURL string `json:"auth_url"`
	}
	if err := a.c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return "", unavailable(http.MethodPost, "/auth/login", err)
	}
	if out.AuthURL == "" {
		return "", fmt.Errorf("%w: POST /auth/login: empty auth_url", ErrUnavailable)
	}
	return out.AuthURL, nil
}

func (a *Auth) User(ctx context.Context, discordID string) (auth.Record, bool, error) {
	var out wireAuthRecord
	err := a.c.do(ctx, http.MethodGet, "/auth/user/"+url.PathEscape(discordID), nil, &out)
	if errors.Is(err, errAbsent) {
		return auth.Record{}, false, nil
	}
	if err != nil {
		return auth.Record{}, false, err
	}
	if out.DiscordID == "" {
		return auth.Record{}, false, nil
	}
	return out.domain(ctx), true, nil
}

func (a *Auth) Users(ctx context.Context) ([]auth.Record, error) {
	var out struct {
		Users []wireAuthRecord `json:"users"`
	}
	if err := a.c.do(ctx, http.MethodGet, "/auth/users", nil, &out); err != nil {
		return nil, unavailable(http.MethodGet, "/auth/users", err)
	}
	recs := make([]auth.Record, 0, len(out.Users))
	for _, w := range out.Users {
		recs = append(recs, w.domain(ctx))
	}
	return recs, nil
}

func (a *Auth) Refresh(ctx context.Context) (auth.RefreshResult, error) {
	var out struct {
		Refreshed []struct {
			DiscordID     snowflake `json:"discord_id"`
			Alliance      string    `json:"alliance"`
			Corporation   string    `json:"corporation"`
			CharacterName string    `json:"character_name"`
		} `json:"refreshed"`
		Failed []struct {
			DiscordID snowflake `json:"discord_id"`
		} `json:"failed"`
	}
	if err := a.c.do(ctx, http.MethodPost, "/auth/refresh", nil, &out); err != nil {
		return auth.RefreshResult{}, unavailable(http.MethodPost, "/auth/refresh", err)
	}

	var res auth.RefreshResult
	for _, r := range out.Refreshed {
		res.Refreshed = append(res.Refreshed, auth.Identity{
			DiscordID:     string(r.DiscordID),
			Alliance:      r.Alliance,
			Corporation:   r.Corporation,
			CharacterName: r.CharacterName,
		})
	}
	for _, f := range out.Failed {
		res.Failed = append(res.Failed, string(f.DiscordID))
	}
	return res, nil
}

func (a *Auth) Delete(ctx context.Context, discordID string) error {
	path := "/auth/" + url.PathEscape(discordID)
	if err := a.c.do(ctx, http.MethodDelete, path, nil, nil); err != nil && !errors.Is(err, errAbsent) {
		return err
	}
	return nil
}
