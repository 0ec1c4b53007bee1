package domain

// StatusClassification labels how many required credentials are present.
//
// The labels follow the backend's session quality vocabulary ("excellent",
// "incomplete", "expired"). "expired" for a single credential does not
// reflect an expiry check.
type StatusClassification string

// Classifications reported to the backend.
const (
	StatusComplete   StatusClassification = "excellent"
	StatusIncomplete StatusClassification = "incomplete"
	StatusDegraded   StatusClassification = "expired"
	StatusAbsent     StatusClassification = "no_session"
)

// Classify maps a count of present required credentials to a classification.
func Classify(count int) StatusClassification {
	switch {
	case count >= RequiredCredentialCount:
		return StatusComplete
	case count == 2:
		return StatusIncomplete
	case count == 1:
		return StatusDegraded
	default:
		return StatusAbsent
	}
}

// String returns the wire representation.
func (s StatusClassification) String() string {
	return string(s)
}
