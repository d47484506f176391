package storyweave

import "math"

// Contributor identifies a producer of storyboard objects, typically one
// script run. Contributors are value-like: [Contributor.WithPriority]
// returns an updated copy rather than mutating the receiver.
type Contributor struct {
	// ID is a stable token, globally unique for the lifetime of a
	// coordinator. Scripts typically use their own identifier (see the
	// external-interfaces notes on script identity); ad hoc callers without
	// one can mint one with [NewContributorID]. A blank ID is never minted
	// automatically, and [LayerCommandCoordinator.RegisterContributor]
	// ignores it.
	ID string
	// Name is a human-readable display label.
	Name string
	// Order is the monotonic registration index assigned by whichever
	// [LayerCommandCoordinator] first registered this contributor.
	Order int
	// Priority is caller-set; smaller sorts earlier.
	Priority int
}

// WithPriority returns a copy of c with Priority set to p.
func (c Contributor) WithPriority(p int) Contributor {
	c.Priority = p
	return c
}

// defaultContributorID is the sentinel ID for the default contributor that
// unregistered or unknown contributor references are silently remapped to.
const defaultContributorID = ""

// defaultContributor returns the sentinel default contributor: maximum
// order and priority, so it always sorts last among real contributors.
func defaultContributor() Contributor {
	return Contributor{
		ID:       defaultContributorID,
		Name:     "default",
		Order:    math.MaxInt32,
		Priority: math.MaxInt32,
	}
}
