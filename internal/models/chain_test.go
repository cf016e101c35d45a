package models

import (
	"reflect"
	"testing"
)

func TestIsValidChainTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{ChainNotStarted, ChainCampaignCreated, true},
		{ChainCampaignCreated, ChainAdSetCreated, true},
		{ChainAdSetCreated, ChainCreativeCreated, true},
		{ChainCreativeCreated, ChainAdCreated, true},

		// Abort paths
		{ChainNotStarted, ChainFailed, true},
		{ChainCampaignCreated, ChainRolledBack, true},
		{ChainAdSetCreated, ChainRolledBack, true},
		{ChainCreativeCreated, ChainRolledBack, true},

		// Invalid
		{ChainNotStarted, ChainAdSetCreated, false},
		{ChainNotStarted, ChainRolledBack, false},
		{ChainCampaignCreated, ChainCreativeCreated, false},
		{ChainAdCreated, ChainRolledBack, false},
		{ChainRolledBack, ChainCampaignCreated, false},
		{ChainFailed, ChainCampaignCreated, false},
		{"nonexistent", ChainCampaignCreated, false},
		{ChainNotStarted, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidChainTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidChainTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllChainStatesHaveTransitionEntry(t *testing.T) {
	allStates := []string{
		ChainNotStarted, ChainCampaignCreated, ChainAdSetCreated,
		ChainCreativeCreated, ChainAdCreated, ChainRolledBack, ChainFailed,
	}
	for _, state := range allStates {
		if _, ok := ValidChainTransitions[state]; !ok {
			t.Errorf("state %q missing from ValidChainTransitions map", state)
		}
	}
}

func TestTerminalChainStatesHaveNoTransitions(t *testing.T) {
	terminal := []string{ChainAdCreated, ChainRolledBack, ChainFailed}
	for _, state := range terminal {
		transitions := ValidChainTransitions[state]
		if len(transitions) != 0 {
			t.Errorf("terminal state %q should have no transitions, got %v", state, transitions)
		}
	}
}

func TestCompensationIDs(t *testing.T) {
	ids := ChainIDs{CampaignID: "cmp", AdSetID: "set", CreativeID: "cre", AdID: "ad"}

	tests := []struct {
		state    string
		expected []string
	}{
		{ChainNotStarted, nil},
		{ChainCampaignCreated, []string{"cmp"}},
		{ChainAdSetCreated, []string{"set", "cmp"}},
		{ChainCreativeCreated, []string{"cre", "set", "cmp"}},
		// The ad id is never compensated: once the ad exists the chain is done.
		{ChainAdCreated, nil},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			got := CompensationIDs(tt.state, ids)
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("CompensationIDs(%q) = %v, want %v", tt.state, got, tt.expected)
			}
		})
	}
}

func TestCompensationIDsSkipsBlanks(t *testing.T) {
	ids := ChainIDs{CampaignID: "cmp"}
	got := CompensationIDs(ChainAdSetCreated, ids)
	if !reflect.DeepEqual(got, []string{"cmp"}) {
		t.Errorf("CompensationIDs with blank adset id = %v, want [cmp]", got)
	}
}
