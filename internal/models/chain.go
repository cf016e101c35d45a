package models

// Remote creation chain states. The chain advances one remote resource at a
// time: Campaign, then AdSet, then Creative, then Ad. An abort from any
// intermediate state compensates by deleting everything created so far.
const (
	ChainNotStarted      = "not_started"
	ChainCampaignCreated = "campaign_created"
	ChainAdSetCreated    = "adset_created"
	ChainCreativeCreated = "creative_created"
	ChainAdCreated       = "ad_created"
	ChainRolledBack      = "rolled_back"
	ChainFailed          = "failed"
)

// Valid chain transitions: from -> []to
var ValidChainTransitions = map[string][]string{
	ChainNotStarted:      {ChainCampaignCreated, ChainFailed},
	ChainCampaignCreated: {ChainAdSetCreated, ChainRolledBack},
	ChainAdSetCreated:    {ChainCreativeCreated, ChainRolledBack},
	ChainCreativeCreated: {ChainAdCreated, ChainRolledBack},
	ChainAdCreated:       {},
	ChainRolledBack:      {},
	ChainFailed:          {},
}

func IsValidChainTransition(from, to string) bool {
	allowed, ok := ValidChainTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ChainIDs holds the remote identifiers produced while walking the chain.
// Empty string means the resource was never created.
type ChainIDs struct {
	CampaignID string
	AdSetID    string
	CreativeID string
	AdID       string
}

// CompensationIDs returns the remote ids to delete when aborting from the
// given state, child-most first. The resource whose creation failed is never
// included, because it never existed.
func CompensationIDs(state string, ids ChainIDs) []string {
	var out []string
	switch state {
	case ChainCreativeCreated:
		out = append(out, ids.CreativeID)
		fallthrough
	case ChainAdSetCreated:
		out = append(out, ids.AdSetID)
		fallthrough
	case ChainCampaignCreated:
		out = append(out, ids.CampaignID)
	}

	filtered := out[:0]
	for _, id := range out {
		if id != "" {
			filtered = append(filtered, id)
		}
	}
	return filtered
}
