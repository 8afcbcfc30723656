package recorder

import "time"

// TransactionStatus is the result of one write attempt.
type TransactionStatus string

const (
	StatusExecuted TransactionStatus = "EXECUTED"
	StatusFailed   TransactionStatus = "FAILED"
	StatusDryRun   TransactionStatus = "DRY_RUN"
)

// CycleRecord summarizes one decision cycle.
type CycleRecord struct {
	CycleID       string
	Confirmed     bool
	DryRun        bool
	IRCount       int
	LineupCount   int
	StreamOutcome string
	StreamCode    string
	StreamReason  string
	QuotaUsed     int
	QuotaLimit    int
}

// TransactionRecord is one submitted (or dry-run) write.
type TransactionRecord struct {
	CycleID     string            `json:"cycle_id"`
	Kind        string            `json:"kind"` // FREEAGENT or LINEUP
	Description string            `json:"description"`
	PlayerOutID int               `json:"player_out_id"`
	PlayerInID  int               `json:"player_in_id"`
	Gain        float64           `json:"gain,omitempty"`
	Status      TransactionStatus `json:"status"`
	Error       string            `json:"error,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// LineupCheckRecord is one pre-game availability check.
type LineupCheckRecord struct {
	CycleID      string
	Urgent       int
	NoGame       int
	Questionable int
	AutoSwapped  int
}

// Recorder persists run history for analysis.
type Recorder interface {
	RecordCycle(rec *CycleRecord) error
	RecordTransaction(rec *TransactionRecord) error
	RecordLineupCheck(rec *LineupCheckRecord) error
	RecentTransactions(limit int) ([]TransactionRecord, error)
	Close() error
}
