package models

import "testing"

func TestCalculateProgress(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want int
	}{
		{"initiated", Task{Status: TaskInitiated}, 10},
		{"submitted", Task{Status: TaskSubmitted}, 30},
		{"pm approved", Task{Status: TaskPMReviewed, PMRating: RatingApproved}, 60},
		{"client approved", Task{Status: TaskClientReviewed, PMRating: RatingApproved, ClientRating: RatingApproved}, 100},
		{"completed", Task{Status: TaskCompleted}, 100},
		{"rejected keeps previous value", Task{Status: TaskRejected, ProgressPercentage: 60}, 60},
		{"rejected with no previous value", Task{Status: TaskRejected}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.CalculateProgress(); got != tt.want {
				t.Errorf("CalculateProgress() = %d, want %d", got, tt.want)
			}
			if tt.task.ProgressPercentage != tt.want {
				t.Errorf("ProgressPercentage = %d, want %d", tt.task.ProgressPercentage, tt.want)
			}
		})
	}
}

func TestCalculateProgressIsDerivedOnly(t *testing.T) {
	// A stored value never survives a recompute in a non-rejected state.
	task := Task{Status: TaskSubmitted, ProgressPercentage: 95}
	if got := task.CalculateProgress(); got != 30 {
		t.Errorf("CalculateProgress() = %d, want 30", got)
	}
}
