package contracts

import "testing"

func TestExpurgoStatusPredicates(t *testing.T) {
	cases := []struct {
		status   ExpurgoStatus
		resolved bool
		granting bool
	}{
		{ExpurgoPending, false, false},
		{ExpurgoApproved, true, true},
		{ExpurgoPartiallyApproved, true, true},
		{ExpurgoRejected, true, false},
	}

	for _, c := range cases {
		if c.status.Resolved() != c.resolved {
			t.Errorf("%s: Resolved = %v, want %v", c.status, c.status.Resolved(), c.resolved)
		}
		if c.status.Granting() != c.granting {
			t.Errorf("%s: Granting = %v, want %v", c.status, c.status.Granting(), c.granting)
		}
	}
}

func TestEffectiveAdjustment(t *testing.T) {
	ten := 10.0
	five := 5.0

	cases := []struct {
		name  string
		event ExpurgoEvent
		want  float64
	}{
		{"pending contributes nothing", ExpurgoEvent{Status: ExpurgoPending, RequestedMagnitude: 10}, 0},
		{"rejected contributes nothing", ExpurgoEvent{Status: ExpurgoRejected, RequestedMagnitude: 10}, 0},
		{"approved uses the approved magnitude", ExpurgoEvent{Status: ExpurgoApproved, RequestedMagnitude: 10, ApprovedMagnitude: &ten}, 10},
		{"partial approval uses the granted part", ExpurgoEvent{Status: ExpurgoPartiallyApproved, RequestedMagnitude: 10, ApprovedMagnitude: &five}, 5},
		{"granting without magnitude contributes nothing", ExpurgoEvent{Status: ExpurgoApproved, RequestedMagnitude: 10}, 0},
	}

	for _, c := range cases {
		if got := c.event.EffectiveAdjustment(); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}
