package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/bwmarrin/snowflake"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alanyang/threadkeeper/internal/observ"
)

// Config is loaded once at startup and handed out in slices; nothing reads
// the environment after Load returns.
type Config struct {
	DiscordToken     string
	GuildID          string
	RecruiterRoleID  string
	DirectorRoleID   string
	BotLogsChannelID string

	WorkerAPIURL string
	WorkerAPIKey string
	APITimeout   time.Duration

	OpsAddr     string
	OpsAPIKey   string
	DatabaseURL string
	RedisURL    string

	DuePollEvery         time.Duration
	RetentionEvery       time.Duration
	RetentionCron        string
	NicknameRefreshEvery time.Duration
	MemberPace           time.Duration
	RecruitCooldown      time.Duration
	OfficerCooldown      time.Duration

	WelcomeChannelName string
	CommunityName      string
	AuthSiteURL        string

	Log observ.LogConfig
}

func Default() Config {
	return Config{
		APITimeout:           10 * time.Second,
		OpsAddr:              ":8080",
		DuePollEvery:         60 * time.Second,
		RetentionEvery:       24 * time.Hour,
		NicknameRefreshEvery: 6 * time.Hour,
		MemberPace:           500 * time.Millisecond,
		RecruitCooldown:      300 * time.Second,
		OfficerCooldown:      600 * time.Second,
		WelcomeChannelName:   "recruitment",
		CommunityName:        "Rev3nants Wrath",
		AuthSiteURL:          "https://auth.black-rose.space",
		Log: observ.LogConfig{
			Level:      "info",
			Format:     "json",
			MaxBytes:   5 * humanize.MiByte,
			MaxBackups: 5,
		},
	}
}

// Load reads envFile (a missing file is fine), then the YAML file named by
// THREADKEEPER_CONFIG, then the environment. Later sources win.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Default()
	if path := os.Getenv("THREADKEEPER_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.WorkerAPIURL = strings.TrimRight(cfg.WorkerAPIURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	required := []struct{ key, val string }{
		{"DISCORD_TOKEN", c.DiscordToken},
		{"WORKER_API_URL", c.WorkerAPIURL},
		{"WORKER_API_KEY", c.WorkerAPIKey},
	}
	for _, r := range required {
		if r.val == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.key))
		}
	}

	ids := []struct{ key, val string }{
		{"GUILD_ID", c.GuildID},
		{"RECRUITER_ROLE_ID", c.RecruiterRoleID},
		{"DIRECTOR_ROLE_ID", c.DirectorRoleID},
		{"BOT_LOGS_CHANNEL_ID", c.BotLogsChannelID},
	}
	for _, id := range ids {
		if err := validSnowflake(id.val); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id.key, err))
		}
	}

	if c.WorkerAPIURL != "" {
		u, err := url.Parse(c.WorkerAPIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("WORKER_API_URL: %q is not an http(s) url", c.WorkerAPIURL))
		}
	}

	positive := []struct {
		key string
		val time.Duration
	}{
		{"API_TIMEOUT_SECONDS", c.APITimeout},
		{"DUE_POLL_SECONDS", c.DuePollEvery},
		{"NICKNAME_REFRESH_SECONDS", c.NicknameRefreshEvery},
	}
	if c.RetentionCron == "" {
		positive = append(positive, struct {
			key string
			val time.Duration
		}{"RETENTION_SWEEP_SECONDS", c.RetentionEvery})
	}
	for _, p := range positive {
		if p.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", p.key))
		}
	}
	for key, val := range map[string]time.Duration{
		"MEMBER_PACE_MS":           c.MemberPace,
		"RECRUIT_COOLDOWN_SECONDS": c.RecruitCooldown,
		"OFFICER_COOLDOWN_SECONDS": c.OfficerCooldown,
	} {
		if val < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", key))
		}
	}

	if c.RetentionCron != "" && !gronx.IsValid(c.RetentionCron) {
		errs = append(errs, fmt.Errorf("RETENTION_CRON: invalid cron expression %q", c.RetentionCron))
	}
	if _, err := observ.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func validSnowflake(s string) error {
	if s == "" {
		return errors.New("is required")
	}
	id, err := snowflake.ParseString(s)
	if err != nil || id.Int64() <= 0 {
		return fmt.Errorf("%q is not a snowflake id", s)
	}
	return nil
}

// ── YAML file ────────────────────────────────────────────────────────────────

type fileConfig struct {
	GuildID          string `yaml:"guild_id"`
	RecruiterRoleID  string `yaml:"recruiter_role_id"`
	DirectorRoleID   string `yaml:"director_role_id"`
	BotLogsChannelID string `yaml:"bot_logs_channel_id"`
	WorkerAPIURL     string `yaml:"worker_api_url"`
	OpsAddr          string `yaml:"ops_addr"`

	CommunityName      string `yaml:"community_name"`
	WelcomeChannelName string `yaml:"welcome_channel_name"`
	AuthSiteURL        string `yaml:"auth_site_url"`

	Intervals struct {
		DuePollSeconds         int    `yaml:"due_poll_seconds"`
		RetentionSweepSeconds  int    `yaml:"retention_sweep_seconds"`
		RetentionCron          string `yaml:"retention_cron"`
		NicknameRefreshSeconds int    `yaml:"nickname_refresh_seconds"`
		MemberPaceMS           int    `yaml:"member_pace_ms"`
		APITimeoutSeconds      int    `yaml:"api_timeout_seconds"`
		RecruitCooldownSeconds int    `yaml:"recruit_cooldown_seconds"`
		OfficerCooldownSeconds int    `yaml:"officer_cooldown_seconds"`
	} `yaml:"intervals"`

	Log struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       string `yaml:"file"`
		MaxSize    string `yaml:"max_size"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.GuildID, f.GuildID)
	setString(&c.RecruiterRoleID, f.RecruiterRoleID)
	setString(&c.DirectorRoleID, f.DirectorRoleID)
	setString(&c.BotLogsChannelID, f.BotLogsChannelID)
	setString(&c.WorkerAPIURL, f.WorkerAPIURL)
	setString(&c.OpsAddr, f.OpsAddr)
	setString(&c.CommunityName, f.CommunityName)
	setString(&c.WelcomeChannelName, f.WelcomeChannelName)
	setString(&c.AuthSiteURL, f.AuthSiteURL)

	iv := f.Intervals
	setDuration(&c.DuePollEvery, iv.DuePollSeconds, time.Second)
	setDuration(&c.RetentionEvery, iv.RetentionSweepSeconds, time.Second)
	setString(&c.RetentionCron, iv.RetentionCron)
	setDuration(&c.NicknameRefreshEvery, iv.NicknameRefreshSeconds, time.Second)
	setDuration(&c.MemberPace, iv.MemberPaceMS, time.Millisecond)
	setDuration(&c.APITimeout, iv.APITimeoutSeconds, time.Second)
	setDuration(&c.RecruitCooldown, iv.RecruitCooldownSeconds, time.Second)
	setDuration(&c.OfficerCooldown, iv.OfficerCooldownSeconds, time.Second)

	setString(&c.Log.Level, f.Log.Level)
	setString(&c.Log.Format, f.Log.Format)
	setString(&c.Log.File, f.Log.File)
	if f.Log.MaxSize != "" {
		n, err := humanize.ParseBytes(f.Log.MaxSize)
		if err != nil {
			return fmt.Errorf("config file log.max_size: %w", err)
		}
		c.Log.MaxBytes = n
	}
	if f.Log.MaxBackups > 0 {
		c.Log.MaxBackups = f.Log.MaxBackups
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, n int, unit time.Duration) {
	if n > 0 {
		*dst = time.Duration(n) * unit
	}
}

// ── Environment ──────────────────────────────────────────────────────────────

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DISCORD_TOKEN":        &c.DiscordToken,
		"GUILD_ID":             &c.GuildID,
		"RECRUITER_ROLE_ID":    &c.RecruiterRoleID,
		"DIRECTOR_ROLE_ID":     &c.DirectorRoleID,
		"BOT_LOGS_CHANNEL_ID":  &c.BotLogsChannelID,
		"WORKER_API_URL":       &c.WorkerAPIURL,
		"WORKER_API_KEY":       &c.WorkerAPIKey,
		"OPS_ADDR":             &c.OpsAddr,
		"OPS_API_KEY":          &c.OpsAPIKey,
		"DATABASE_URL":         &c.DatabaseURL,
		"REDIS_URL":            &c.RedisURL,
		"RETENTION_CRON":       &c.RetentionCron,
		"WELCOME_CHANNEL_NAME": &c.WelcomeChannelName,
		"COMMUNITY_NAME":       &c.CommunityName,
		"AUTH_SITE_URL":        &c.AuthSiteURL,
		"LOG_LEVEL":            &c.Log.Level,
		"LOG_FORMAT":           &c.Log.Format,
		"LOG_FILE":             &c.Log.File,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	durations := []struct {
		key  string
		unit time.Duration
		dst  *time.Duration
	}{
		{"API_TIMEOUT_SECONDS", time.Second, &c.APITimeout},
		{"DUE_POLL_SECONDS", time.Second, &c.DuePollEvery},
		{"RETENTION_SWEEP_SECONDS", time.Second, &c.RetentionEvery},
		{"NICKNAME_REFRESH_SECONDS", time.Second, &c.NicknameRefreshEvery},
		{"MEMBER_PACE_MS", time.Millisecond, &c.MemberPace},
		{"RECRUIT_COOLDOWN_SECONDS", time.Second, &c.RecruitCooldown},
		{"OFFICER_COOLDOWN_SECONDS", time.Second, &c.OfficerCooldown},
	}
	var errs []error
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", d.key, v))
			continue
		}
		*d.dst = time.Duration(n) * d.unit
	}

	if v, ok := lookup("LOG_MAX_SIZE"); ok && v != "" {
		n, err := humanize.ParseBytes(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LOG_MAX_SIZE: %w", err))
		} else {
			c.Log.MaxBytes = n
		}
	}
	return errors.Join(errs...)
}
