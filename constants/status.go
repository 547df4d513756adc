package constants

// DocumentStatus is the canonical lifecycle status for rows in documents.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocStatusPending    DocumentStatus = "pending"    // uploaded, not yet picked up
	DocStatusProcessing DocumentStatus = "processing" // pipeline owns the document
	DocStatusCompleted  DocumentStatus = "completed"  // terminal success (may carry validation errors)
	DocStatusFailed     DocumentStatus = "failed"     // terminal failure, error message stored
)

// EstimateStatus tracks an estimate after generation. Status transitions are
// the only mutation allowed on a persisted estimate.
type EstimateStatus string

const (
	EstimateDraft    EstimateStatus = "draft"
	EstimateSent     EstimateStatus = "sent"
	EstimateAccepted EstimateStatus = "accepted"
	EstimateDeclined EstimateStatus = "declined"
)

var estimateTransitions = map[EstimateStatus][]EstimateStatus{
	EstimateDraft: {EstimateSent},
	EstimateSent:  {EstimateAccepted, EstimateDeclined},
}

// CanTransitionEstimate reports whether moving an estimate between the two
// statuses is allowed.
func CanTransitionEstimate(from, to EstimateStatus) bool {
	for _, next := range estimateTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
