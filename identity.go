package storyweave

import "github.com/google/uuid"

// NewContributorID mints a stable globally-unique contributor token for
// callers that don't already have one (e.g. an ad hoc script run, or a test
// fixture). Scripts with a stable external identifier should pass that identifier
// straight through to [LayerCommandCoordinator.RegisterContributor] instead
// of calling this, so repeated runs of the same script share one identity.
func NewContributorID() string {
	return uuid.NewString()
}
