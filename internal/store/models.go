package store

import (
	"time"
)

// RegistrationRow is the persisted shape of one canonical registration,
// keyed by the derived storage id.
type RegistrationRow struct {
	ID            string `gorm:"primaryKey"`
	TransactionID string `gorm:"index"`
	FirstName     string
	LastName      string
	DisplayName   string
	Phone         string
	Email         string
	Age           int
	FormVersion   string
	Amount        float64
	Complimentary bool
	SeatInfo      string
	Quantity      int
	TxnDate       string
	Venue         string
	Session       string
	EventName     string
	ShowDate      string
	// InviteesJSON holds the referral slots of legacy-form records.
	InviteesJSON []byte
	UpdatedAt    time.Time
}

// TableName keeps the table name stable regardless of struct renames.
func (RegistrationRow) TableName() string { return "registrations" }

// SnapshotRow is the single replace-on-write statistics document.
type SnapshotRow struct {
	ID          int `gorm:"primaryKey"`
	Payload     []byte
	GeneratedAt time.Time
}

func (SnapshotRow) TableName() string { return "stats_snapshot" }

// snapshotRowID is the fixed key of the one snapshot row.
const snapshotRowID = 1

// RunReportRow keeps one run's anomaly counters for auditing.
type RunReportRow struct {
	RunID      string `gorm:"primaryKey"`
	Payload    []byte
	FinishedAt time.Time `gorm:"index"`
}

func (RunReportRow) TableName() string { return "run_reports" }
