package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycle(_ *CycleRecord) error             { return nil }
func (n *NoopRecorder) RecordTransaction(_ *TransactionRecord) error { return nil }
func (n *NoopRecorder) RecordLineupCheck(_ *LineupCheckRecord) error { return nil }
func (n *NoopRecorder) Close() error                                 { return nil }

func (n *NoopRecorder) RecentTransactions(_ int) ([]TransactionRecord, error) { return nil, nil }
