// Package trace records the decisions made while transferring a donor mapping
// onto a new circuit. It has no dependencies on qmap and stores only
// pure data types.
package trace

// Reason explains how a target qubit received its site.
type Reason string

const (
	// ReasonExact: donor and target share the whole qubit set.
	ReasonExact Reason = "exact"
	// ReasonShared: the qubit exists in both donor and target.
	ReasonShared Reason = "shared"
	// ReasonPaired: a target-only qubit borrowed the site of a donor-only qubit.
	ReasonPaired Reason = "paired"
	// ReasonRandom: donor information was exhausted; a remaining site was drawn at random.
	ReasonRandom Reason = "random"
)

// TransferRecord captures one site assignment.
type TransferRecord struct {
	Qubit      string
	DonorQubit string // empty for ReasonRandom
	DonorSite  int    // -1 for ReasonRandom
	Site       int
	Distance   int // squared transfer distance; 0 for ReasonRandom
	Reason     Reason
}
