package model

import "time"

// QuotaState is the weekly transaction counter persisted across cycles.
type QuotaState struct {
	Count            int       `json:"count"`
	LastRunTimestamp time.Time `json:"last_run_timestamp"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// GuardrailConfig protects roster players from being dropped.
type GuardrailConfig struct {
	Untouchables                  []string `yaml:"untouchables" json:"untouchables"`
	RankThreshold                 int      `yaml:"drop_block_orank_better_than" json:"rank_threshold"`
	AllowDropIfSeasonEndingInjury bool     `yaml:"allow_drop_if_season_ending_injury" json:"allow_drop_if_season_ending_injury"`
}
