package domain

import (
	"time"
)

// RunRecord represents one optimizer or late-swap run
type RunRecord struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Kind         string    `json:"kind" gorm:"index"` // "optimize" or "lateswap"
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Lineups      int       `json:"lineups"`
	Attempts     int       `json:"attempts"`
	Infeasible   int       `json:"infeasible"`
	ConfigDigest string    `json:"config_digest"` // sha256 of the run configuration
	CreatedAt    time.Time `json:"created_at"`
}

// LineupRecord represents one accepted lineup within a run
type LineupRecord struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID           string    `json:"run_id" gorm:"index"`
	Seq             int       `json:"seq"` // acceptance order within the run
	TotalSalary     int       `json:"total_salary"`
	TotalProjection string    `json:"total_projection"`
	PrimaryTeam     string    `json:"primary_team"`
	SecondaryTeam   string    `json:"secondary_team"`
	EntriesJSON     string    `json:"entries_json"` // serialized LineupEntry list
	CreatedAt       time.Time `json:"created_at"`
}

// SwapRecord represents the late-swap outcome for one contest entry
type SwapRecord struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID           string    `json:"run_id" gorm:"index"`
	EntryID         string    `json:"entry_id"`
	Strategy        string    `json:"strategy"`
	Swaps           int       `json:"swaps"`
	ProjectionDelta string    `json:"projection_delta"`
	SalaryDelta     int       `json:"salary_delta"`
	Reason          string    `json:"reason"` // set when the entry stayed untouched
	CreatedAt       time.Time `json:"created_at"`
}
