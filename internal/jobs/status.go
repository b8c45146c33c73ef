package jobs

// Status is the lifecycle state of a tracked posting. The pipeline itself
// only ever writes StatusNew (row creation) and StatusLowMatch or
// StatusNotAvailable (automatic scoring outcomes). Every other state is set
// by a human editing the sheet and must never be overwritten here.
type Status string

const (
	StatusNew                Status = "NEW"
	StatusLowMatch           Status = "LOW_MATCH"
	StatusRead               Status = "READ"
	StatusInterested         Status = "INTERESTED"
	StatusNotInterested      Status = "NOT_INTERESTED"
	StatusApplied            Status = "APPLIED"
	StatusInterviewScheduled Status = "INTERVIEW_SCHEDULED"
	StatusDeclined           Status = "DECLINED"
	StatusAccepted           Status = "ACCEPTED"
	StatusNotAvailable       Status = "NOT_AVAILABLE"
)

// AllStatuses lists every lifecycle state in dropdown order.
func AllStatuses() []Status {
	return []Status{
		StatusNew,
		StatusLowMatch,
		StatusRead,
		StatusInterested,
		StatusNotInterested,
		StatusApplied,
		StatusInterviewScheduled,
		StatusDeclined,
		StatusAccepted,
		StatusNotAvailable,
	}
}

// MatchResult carries one scoring outcome for a record. Results are created
// fresh per analysis pass, never mutated, and consumed once by the
// reconciliation engine.
type MatchResult struct {
	JobID       string
	Probability *int
	Status      Status
	Reasoning   string

	// Per-provider breakdown. Nil score means the provider did not answer.
	ProScore      *int
	ProArgument   string
	FlashScore    *int
	FlashArgument string

	RequirementsMet   *int
	RequirementsTotal *int
	RequirementGaps   string
}

// StatusForProbability maps a probability to the automatic lifecycle state.
// The threshold is boundary-inclusive: a probability equal to the threshold
// is not considered below it.
func StatusForProbability(probability, threshold int) Status {
	if probability < threshold {
		return StatusLowMatch
	}
	return StatusNew
}
