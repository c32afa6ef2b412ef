package models

import "github.com/magabrotheeeer/coach-portal/internal/lib/daykey"

// ActivityCategory - класс дня в календаре.
type ActivityCategory string

const (
	CategoryNone       ActivityCategory = "none"
	CategoryWorkout    ActivityCategory = "workout"
	CategoryFeedback   ActivityCategory = "feedback"
	CategoryLoadEffort ActivityCategory = "load_effort"
	CategoryMultiple   ActivityCategory = "multiple"
)

// ActivityRecord - производная запись дня; не сохраняется.
type ActivityRecord struct {
	DayKey        string `json:"day_key"`
	HasWorkout    bool   `json:"has_workout"`
	HasFeedback   bool   `json:"has_feedback"`
	HasLoadEffort bool   `json:"has_load_effort"`
}

// Category относит день к одному источнику или к «нескольким».
func (a ActivityRecord) Category() ActivityCategory {
	n := 0
	category := CategoryNone
	if a.HasWorkout {
		n++
		category = CategoryWorkout
	}
	if a.HasFeedback {
		n++
		category = CategoryFeedback
	}
	if a.HasLoadEffort {
		n++
		category = CategoryLoadEffort
	}
	if n > 1 {
		return CategoryMultiple
	}
	return category
}

// Calendar - записи активности по ключу дня.
type Calendar map[string]ActivityRecord

// Touch возвращает запись дня, создавая её при первом обращении.
func (c Calendar) Touch(dayKey string) ActivityRecord {
	rec, ok := c[dayKey]
	if !ok {
		rec = ActivityRecord{DayKey: dayKey}
	}
	return rec
}

// Range возвращает дни в интервале [from, to]; пустая граница не ограничивает.
func (c Calendar) Range(from, to string) Calendar {
	out := make(Calendar, len(c))
	for k, v := range c {
		if from != "" && k < from {
			continue
		}
		if to != "" && k > to {
			continue
		}
		out[k] = v
	}
	return out
}

// ProgressSummary - документ progress/{clientId}.
type ProgressSummary struct {
	CompletedDays map[string]bool `json:"completedDays"`
}

// LoadEffortEntry - запись нагрузки/усилия за день.
type LoadEffortEntry struct {
	Date   daykey.Timestamp `json:"date"`
	Load   any              `json:"load,omitempty"`
	Effort any              `json:"effort,omitempty"`
}

// LoadEffortLog - документ loadEffort/{clientId}.
type LoadEffortLog struct {
	Entries []LoadEffortEntry `json:"entries"`
}
