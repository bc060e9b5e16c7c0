package attachment

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"draft to submitted", StatusDraft, StatusSubmitted, true},
		{"draft to withdrawn", StatusDraft, StatusWithdrawn, true},
		{"draft straight to approved", StatusDraft, StatusApproved, false},
		{"submitted to verified", StatusSubmitted, StatusVerified, true},
		{"submitted to rejected", StatusSubmitted, StatusRejected, true},
		{"verified to departmental review", StatusVerified, StatusDepartmentReview, true},
		{"departmental review approved", StatusDepartmentReview, StatusDepartmentApproved, true},
		{"departmental approval to coordinator review", StatusDepartmentApproved, StatusCoordinatorReview, true},
		{"coordinator review to approved", StatusCoordinatorReview, StatusApproved, true},
		{"approved to placed", StatusApproved, StatusPlaced, true},
		{"placed to ongoing", StatusPlaced, StatusOngoing, true},
		{"ongoing to completed", StatusOngoing, StatusCompleted, true},
		{"ongoing to terminated", StatusOngoing, StatusTerminated, true},
		{"no withdrawal after placement", StatusPlaced, StatusWithdrawn, false},
		{"no withdrawal while ongoing", StatusOngoing, StatusWithdrawn, false},
		{"no backwards move", StatusApproved, StatusSubmitted, false},
		{"rejected is terminal", StatusRejected, StatusSubmitted, false},
		{"withdrawn is terminal", StatusWithdrawn, StatusSubmitted, false},
		{"completed is terminal", StatusCompleted, StatusOngoing, false},
		{"terminated is terminal", StatusTerminated, StatusOngoing, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s) = %v; expected %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	for status := range statusLabels {
		if !status.IsTerminal() {
			continue
		}
		if next := NextStatuses(status); len(next) > 0 {
			t.Errorf("terminal status %s has exits: %v", status, next)
		}
	}
}

func TestWithdrawalOnlyBeforePlacement(t *testing.T) {
	prePlacement := []Status{
		StatusDraft, StatusSubmitted, StatusVerified, StatusDepartmentReview,
		StatusDepartmentApproved, StatusCoordinatorReview, StatusApproved,
	}
	for _, status := range prePlacement {
		if !CanTransition(status, StatusWithdrawn) {
			t.Errorf("withdrawal should be allowed from %s", status)
		}
	}
	for _, status := range []Status{StatusPlaced, StatusOngoing} {
		if CanTransition(status, StatusWithdrawn) {
			t.Errorf("withdrawal should not be allowed from %s", status)
		}
	}
}

func TestRequiresReason(t *testing.T) {
	for status := range statusLabels {
		want := status == StatusRejected || status == StatusTerminated
		if got := status.RequiresReason(); got != want {
			t.Errorf("%s.RequiresReason() = %v; expected %v", status, got, want)
		}
	}
}

func TestApplicationProgress(t *testing.T) {
	start := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 100)
	app := Application{StartDate: start, EndDate: end}

	tests := []struct {
		name   string
		status Status
		now    time.Time
		want   int
	}{
		{"not started", StatusPlaced, start.AddDate(0, 0, 10), 0},
		{"before start date", StatusOngoing, start.AddDate(0, 0, -1), 0},
		{"on start date", StatusOngoing, start, 0},
		{"a quarter in", StatusOngoing, start.AddDate(0, 0, 25), 25},
		{"halfway", StatusOngoing, start.AddDate(0, 0, 50), 50},
		{"past the end", StatusOngoing, end.AddDate(0, 0, 5), 100},
		{"completed early", StatusCompleted, start.AddDate(0, 0, 10), 100},
		{"terminated", StatusTerminated, start.AddDate(0, 0, 50), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.Status = tt.status
			if got := app.Progress(tt.now); got != tt.want {
				t.Errorf("Progress() = %d; expected %d", got, tt.want)
			}
		})
	}
}
