package models

import (
	"fmt"
	"time"
)

// StatsWindow is the look-back period for transition aggregates.
type StatsWindow string

const (
	WindowDay   StatsWindow = "day"
	WindowWeek  StatsWindow = "week"
	WindowMonth StatsWindow = "month"
)

// ParseStatsWindow validates a window name. Empty defaults to a week.
func ParseStatsWindow(name string) (StatsWindow, error) {
	switch StatsWindow(name) {
	case "":
		return WindowWeek, nil
	case WindowDay, WindowWeek, WindowMonth:
		return StatsWindow(name), nil
	default:
		return "", fmt.Errorf("unknown stats window %q", name)
	}
}

// Duration returns how far back the window reaches.
func (w StatsWindow) Duration() time.Duration {
	switch w {
	case WindowDay:
		return 24 * time.Hour
	case WindowMonth:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// WorkflowStats are dashboard aggregates over posts and transitions.
type WorkflowStats struct {
	Window            StatsWindow              `json:"window"`
	Since             time.Time                `json:"since"`
	StateDistribution map[WorkflowState]int64  `json:"state_distribution"`
	ActionCounts      map[WorkflowAction]int64 `json:"action_counts"`
	RecentTransitions []*WorkflowTransition    `json:"recent_transitions"`
	GeneratedAt       time.Time                `json:"generated_at"`
}
