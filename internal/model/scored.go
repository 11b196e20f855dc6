package model

// ExceptionType tags a scored record with the policy mirror's verdict.
type ExceptionType string

// Exception classifications. Exactly one applies to every scored record.
const (
	// ExceptionNone means model and history broadly agree, or the model is
	// not confident enough to assert disagreement.
	ExceptionNone ExceptionType = "normal"
	// ExceptionUnderApproval means the model is highly confident the
	// application should have been approved, yet history rejected it.
	ExceptionUnderApproval ExceptionType = "under_approval"
	// ExceptionOverApproval means the model is highly confident the
	// application should have been rejected, yet history approved it.
	ExceptionOverApproval ExceptionType = "over_approval"
)

// Valid reports whether the exception type is a known value.
func (e ExceptionType) Valid() bool {
	switch e {
	case ExceptionNone, ExceptionUnderApproval, ExceptionOverApproval:
		return true
	}
	return false
}

// IsException reports whether the tag marks a high-confidence disagreement.
func (e ExceptionType) IsException() bool {
	return e == ExceptionUnderApproval || e == ExceptionOverApproval
}

// BandedApplication is an application enriched with its derived bands, either
// computed in-process or pulled back from a staging store.
type BandedApplication struct {
	LoanApplication
	Bands Bands
}

// ScoredApplication is an application after one model-fit cycle: bands,
// predicted approval probability and the exception tag. Advisory only; never
// persisted as ground truth.
type ScoredApplication struct {
	BandedApplication
	Probability float64
	Exception   ExceptionType
}
