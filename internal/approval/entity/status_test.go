package entity

import "testing"

func TestCalculateStatus(t *testing.T) {
	tests := []struct {
		name     string
		manager  string
		director string
		previous string
		want     string
	}{
		{"no decisions defaults to pending review", "", "", StatusPendingReview, StatusPendingReview},
		{"no decisions from empty previous", "", "", "", StatusPendingReview},
		{"manager approve moves to pending approval", DecisionApprove, "", StatusPendingReview, StatusPendingApproval},
		{"manager reject", DecisionReject, "", StatusPendingReview, StatusRejected},
		{"manager requests more info", DecisionRequestMoreInfo, "", StatusPendingReview, StatusPendingReview},
		{"director approve finalizes", DecisionApprove, DecisionApprove, StatusPendingApproval, StatusApproved},
		{"director reject finalizes", DecisionApprove, DecisionReject, StatusPendingApproval, StatusRejected},
		{"director requests more info reopens", DecisionApprove, DecisionRequestMoreInfo, StatusPendingApproval, StatusPendingReview},
		{"director reject overrides manager approve", DecisionApprove, DecisionReject, StatusPendingReview, StatusRejected},
		{"director approve without manager decision", "", DecisionApprove, StatusPendingReview, StatusApproved},
		{"director reject overrides manager reject", DecisionReject, DecisionApprove, StatusPendingReview, StatusApproved},
		{"cancelled is sticky over director approve", DecisionApprove, DecisionApprove, StatusCancelled, StatusCancelled},
		{"cancelled is sticky over director reject", "", DecisionReject, StatusCancelled, StatusCancelled},
		{"cancelled is sticky with no decisions", "", "", StatusCancelled, StatusCancelled},
		{"unrecognized manager decision treated as none", "maybe", "", StatusPendingReview, StatusPendingReview},
		{"unrecognized director decision falls to manager", DecisionApprove, "escalate", StatusPendingReview, StatusPendingApproval},
		{"stale manager approve recomputes after return", DecisionApprove, "", StatusPendingReview, StatusPendingApproval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateStatus(tt.manager, tt.director, tt.previous)
			if got != tt.want {
				t.Errorf("CalculateStatus(%q, %q, %q) = %q, want %q",
					tt.manager, tt.director, tt.previous, got, tt.want)
			}
		})
	}
}

func TestCalculateStatusDeterministic(t *testing.T) {
	decisions := []string{"", DecisionApprove, DecisionReject, DecisionRequestMoreInfo, "bogus"}
	statuses := []string{"", StatusPendingReview, StatusPendingApproval, StatusRequestMoreInfo,
		StatusApproved, StatusRejected, StatusCancelled}

	for _, m := range decisions {
		for _, d := range decisions {
			for _, prev := range statuses {
				first := CalculateStatus(m, d, prev)
				second := CalculateStatus(m, d, prev)
				if first != second {
					t.Fatalf("CalculateStatus(%q, %q, %q) not deterministic: %q vs %q", m, d, prev, first, second)
				}
				switch first {
				case StatusPendingReview, StatusPendingApproval, StatusApproved, StatusRejected, StatusCancelled:
				default:
					t.Fatalf("CalculateStatus(%q, %q, %q) produced unexpected status %q", m, d, prev, first)
				}
			}
		}
	}
}
