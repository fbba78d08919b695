package models

import "strings"

type TaskStatus string

type TaskPriority string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"

	DefaultStatus = StatusPending
)

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"

	DefaultPriority = PriorityMedium
)

// Spellings are matched after lowercasing, trimming and collapsing
// separators, so "IN_PROGRESS", " in-progress " and "In Progress" agree.
var statusSpellings = map[string]TaskStatus{
	"pending":    StatusPending,
	"todo":       StatusPending,
	"new":        StatusPending,
	"open":       StatusPending,
	"inprogress": StatusInProgress,
	"progress":   StatusInProgress,
	"started":    StatusInProgress,
	"completed":  StatusCompleted,
	"complete":   StatusCompleted,
	"done":       StatusCompleted,
}

var prioritySpellings = map[string]TaskPriority{
	"low":    PriorityLow,
	"medium": PriorityMedium,
	"normal": PriorityMedium,
	"med":    PriorityMedium,
	"mid":    PriorityMedium,
	"high":   PriorityHigh,
}

// NormalizeStatus maps any input onto the status domain. Unknown or empty
// input yields DefaultStatus.
func NormalizeStatus(s string) TaskStatus {
	if v, ok := statusSpellings[enumKey(s)]; ok {
		return v
	}
	return DefaultStatus
}

// NormalizePriority maps any input onto the priority domain. Unknown or
// empty input yields DefaultPriority.
func NormalizePriority(s string) TaskPriority {
	if v, ok := prioritySpellings[enumKey(s)]; ok {
		return v
	}
	return DefaultPriority
}

func enumKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
