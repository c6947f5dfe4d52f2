package domain

// AttemptOutcome classifies the result of one submitted execution unit.
type AttemptOutcome string

const (
	OutcomeSuccess          AttemptOutcome = "SUCCESS"
	OutcomeReverted         AttemptOutcome = "REVERTED"
	OutcomeSubmissionFailed AttemptOutcome = "SUBMISSION_FAILED"
)

// ExecutionAttempt records one scheduler cycle that reached submission.
// Exactly one attempt is produced per submitted cycle; it feeds Stats and
// the attempt store.
type ExecutionAttempt struct {
	AttemptID      string // uuid
	Opportunity    Opportunity
	Outcome        AttemptOutcome
	Reason         string // revert or submission failure reason, empty on success
	Signature      string // transaction signature, empty if submission failed before send
	RealizedProfit uint64 // surplus actually paid out, only set on success
	Timestamp      int64  // Unix timestamp in milliseconds
}
