package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/transaction"
)

// ConfigurationError reports missing or invalid configuration. It is fatal and
// raised before any platform read.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// TemplateConfig is an operator-captured request override. BodyFile wins over Body.
type TemplateConfig struct {
	URL      string `yaml:"url"`
	Body     string `yaml:"body"`
	BodyFile string `yaml:"body_file"`
}

// Config holds all application configuration.
type Config struct {
	League struct {
		LeagueID   int `yaml:"league_id"`
		TeamID     int `yaml:"team_id"`
		SeasonYear int `yaml:"season_year"`
		ESPNAuth   struct {
			SWID   string `yaml:"swid"`
			ESPNS2 string `yaml:"espn_s2"`
		} `yaml:"espn_auth"`
	} `yaml:"league"`
	Strategy struct {
		Guardrails model.GuardrailConfig `yaml:"protection_guardrails"`
		Streaming  struct {
			WeeklyLimit       int     `yaml:"weekly_transaction_limit"`
			MinPointsGain     float64 `yaml:"min_points_gain"`
			FreeAgentPoolSize int     `yaml:"free_agent_pool_size"`
			LowestTierSize    int     `yaml:"lowest_tier_size"`
			TierCount         int     `yaml:"tier_count"`
			DryRun            bool    `yaml:"dry_run"`
		} `yaml:"tiered_streaming"`
	} `yaml:"strategy"`
	Transactions struct {
		FreeAgent TemplateConfig `yaml:"free_agent"`
		Lineup    TemplateConfig `yaml:"lineup"`
		SlotIDs   map[string]int `yaml:"slot_ids"`
	} `yaml:"transactions"`
	Lineup struct {
		AutoSwap bool `yaml:"auto_swap"`
	} `yaml:"lineup"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		CycleCron       string `yaml:"cycle_cron"`
		LineupCheckCron string `yaml:"lineup_check_cron"`
	} `yaml:"schedule"`
	Quota struct {
		Backend       string `yaml:"backend"` // file or redis
		StateFile     string `yaml:"state_file"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisKey      string `yaml:"redis_key"`
	} `yaml:"quota"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	API struct {
		Addr string `yaml:"addr"`
	} `yaml:"api"`
	Proxy string `yaml:"proxy"`

	FreeAgentTemplate *transaction.Template `yaml:"-"`
	LineupTemplate    *transaction.Template `yaml:"-"`
	Slots             model.SlotTable       `yaml:"-"`
}

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. Request templates are read and checked here, not at submission.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Seeded before parsing since false and 0 are meaningful values for these.
	// A weekly limit of 0 disables streaming.
	cfg.Strategy.Guardrails.RankThreshold = 50
	cfg.Strategy.Guardrails.AllowDropIfSeasonEndingInjury = true
	cfg.Strategy.Streaming.WeeklyLimit = 7
	cfg.Strategy.Streaming.MinPointsGain = 3.0
	cfg.Strategy.Streaming.DryRun = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	envString("ESPN_SWID", &cfg.League.ESPNAuth.SWID)
	if cfg.League.ESPNAuth.SWID == "" {
		envString("SWID", &cfg.League.ESPNAuth.SWID)
	}
	envString("ESPN_S2", &cfg.League.ESPNAuth.ESPNS2)
	if err := envInt("LEAGUE_ID", &cfg.League.LeagueID); err != nil {
		return nil, err
	}
	if err := envInt("TEAM_ID", &cfg.League.TeamID); err != nil {
		return nil, err
	}
	if err := envInt("SEASON_YEAR", &cfg.League.SeasonYear); err != nil {
		return nil, err
	}
	envString("ESPN_TRANSACTION_URL", &cfg.Transactions.FreeAgent.URL)
	envString("ESPN_TRANSACTION_BODY", &cfg.Transactions.FreeAgent.Body)
	envString("ESPN_TRANSACTION_BODY_FILE", &cfg.Transactions.FreeAgent.BodyFile)
	envString("ESPN_LINEUP_URL", &cfg.Transactions.Lineup.URL)
	envString("ESPN_LINEUP_BODY", &cfg.Transactions.Lineup.Body)
	envString("ESPN_LINEUP_BODY_FILE", &cfg.Transactions.Lineup.BodyFile)
	envString("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	envString("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)
	envString("REDIS_ADDR", &cfg.Quota.RedisAddr)
	envString("SQLITE_PATH", &cfg.Database.SQLitePath)
	envString("HTTPS_PROXY", &cfg.Proxy)
	envString("API_ADDR", &cfg.API.Addr)
	if v := os.Getenv("DRY_RUN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &ConfigurationError{Field: "DRY_RUN", Reason: fmt.Sprintf("not a boolean: %q", v)}
		}
		cfg.Strategy.Streaming.DryRun = b
	}

	// Defaults
	if cfg.Strategy.Streaming.FreeAgentPoolSize == 0 {
		cfg.Strategy.Streaming.FreeAgentPoolSize = 50
	}
	if cfg.Strategy.Streaming.LowestTierSize == 0 {
		cfg.Strategy.Streaming.LowestTierSize = 3
	}
	if cfg.Strategy.Streaming.TierCount == 0 {
		cfg.Strategy.Streaming.TierCount = 3
	}
	if cfg.Schedule.CycleCron == "" {
		cfg.Schedule.CycleCron = "0 0 10 * * *"
	}
	if cfg.Schedule.LineupCheckCron == "" {
		cfg.Schedule.LineupCheckCron = "0 30 17 * * *"
	}
	if cfg.Quota.Backend == "" {
		cfg.Quota.Backend = "file"
	}
	if cfg.Quota.StateFile == "" {
		cfg.Quota.StateFile = "data/quota_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/fantasybot.db"
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = ":8000"
	}

	if cfg.FreeAgentTemplate, err = loadTemplate("transactions.free_agent", cfg.Transactions.FreeAgent); err != nil {
		return nil, err
	}
	if cfg.LineupTemplate, err = loadTemplate("transactions.lineup", cfg.Transactions.Lineup); err != nil {
		return nil, err
	}
	if cfg.Slots, err = model.NewSlotTable(cfg.Transactions.SlotIDs); err != nil {
		return nil, &ConfigurationError{Field: "transactions.slot_ids", Reason: err.Error()}
	}

	return cfg, nil
}

func loadTemplate(field string, tc TemplateConfig) (*transaction.Template, error) {
	body := tc.Body
	if tc.BodyFile != "" {
		data, err := os.ReadFile(tc.BodyFile)
		if err != nil {
			return nil, &ConfigurationError{Field: field + ".body_file", Reason: err.Error()}
		}
		body = string(data)
	}
	t, err := transaction.ParseTemplate(strings.TrimSpace(tc.URL), strings.TrimSpace(body))
	if err != nil {
		return nil, &ConfigurationError{Field: field, Reason: err.Error()}
	}
	return t, nil
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &ConfigurationError{Field: key, Reason: fmt.Sprintf("not an integer: %q", v)}
	}
	*dst = n
	return nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch {
	case c.League.LeagueID <= 0:
		return &ConfigurationError{Field: "league.league_id", Reason: "is required"}
	case c.League.TeamID <= 0:
		return &ConfigurationError{Field: "league.team_id", Reason: "is required"}
	case c.League.SeasonYear <= 0:
		return &ConfigurationError{Field: "league.season_year", Reason: "is required"}
	case c.League.ESPNAuth.SWID == "":
		return &ConfigurationError{Field: "league.espn_auth.swid", Reason: "is required"}
	case c.League.ESPNAuth.ESPNS2 == "":
		return &ConfigurationError{Field: "league.espn_auth.espn_s2", Reason: "is required"}
	}
	if c.Strategy.Streaming.WeeklyLimit < 0 {
		return &ConfigurationError{Field: "strategy.tiered_streaming.weekly_transaction_limit", Reason: "must not be negative"}
	}
	if c.Strategy.Streaming.FreeAgentPoolSize < 1 {
		return &ConfigurationError{Field: "strategy.tiered_streaming.free_agent_pool_size", Reason: "must be positive"}
	}
	if c.Strategy.Streaming.TierCount < 1 || c.Strategy.Streaming.LowestTierSize < 1 {
		return &ConfigurationError{Field: "strategy.tiered_streaming", Reason: "tier_count and lowest_tier_size must be positive"}
	}
	switch c.Quota.Backend {
	case "file":
	case "redis":
		if c.Quota.RedisAddr == "" {
			return &ConfigurationError{Field: "quota.redis_addr", Reason: "is required for the redis backend"}
		}
	default:
		return &ConfigurationError{Field: "quota.backend", Reason: fmt.Sprintf("unknown backend %q", c.Quota.Backend)}
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return &ConfigurationError{Field: "telegram.chat_id", Reason: "is required with telegram.bot_token"}
	}
	return nil
}
