package engine

// OutcomeStatus terminal status of a transfer.
type OutcomeStatus string

const (
	StatusCommitted         OutcomeStatus = "committed"
	StatusInvalidRequest    OutcomeStatus = "invalid_request"
	StatusInsufficientFunds OutcomeStatus = "insufficient_funds"
	StatusAccountNotFound   OutcomeStatus = "account_not_found"
	StatusAborted           OutcomeStatus = "aborted"
)

// Outcome is the determinate result of one Transfer call. Business-rule
// rejections are outcomes, not errors; only infrastructure failures are
// surfaced as errors alongside a zero Outcome.
type Outcome struct {
	Status OutcomeStatus
	Reason string
}

func (o Outcome) Committed() bool { return o.Status == StatusCommitted }

func Committed() Outcome { return Outcome{Status: StatusCommitted} }

func InvalidRequest(reason string) Outcome {
	return Outcome{Status: StatusInvalidRequest, Reason: reason}
}

func InsufficientFunds() Outcome { return Outcome{Status: StatusInsufficientFunds} }

func AccountNotFound(reason string) Outcome {
	return Outcome{Status: StatusAccountNotFound, Reason: reason}
}

func Aborted(reason string) Outcome {
	return Outcome{Status: StatusAborted, Reason: reason}
}
