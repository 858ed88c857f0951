package domain

import "time"

// StageCount records how many records a pipeline stage produced.
type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// RunReport aggregates the anomaly counters of one pipeline run. Nothing
// in the pipeline is fatal to the batch; every anomaly lands in one of
// these counters and the batch always completes.
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Normalization counters.
	RowsTotal     int `json:"rows_total"`
	RowsParsed    int `json:"rows_parsed"`
	MalformedRows int `json:"malformed_rows"`
	ParseWarnings int `json:"parse_warnings"`

	// Expansion and backfill counters.
	ExpandedTickets   int `json:"expanded_tickets"`
	BackfilledRecords int `json:"backfilled_records"`

	// Matching counters. NameOnlyAccepted counts pairings accepted on an
	// unambiguous name with no confirming phone/email signal, so that
	// heuristic is auditable rather than silent.
	MembersMatched    int `json:"members_matched"`
	NameOnlyAccepted  int `json:"name_only_accepted"`
	AmbiguousRejected int `json:"ambiguous_rejected"`
	UnmatchedMembers  int `json:"unmatched_members"`
	NonMemberRecords  int `json:"non_member_records"`
	ReturningRecords  int `json:"returning_records"`

	StageCounts []StageCount `json:"stage_counts,omitempty"`
}
