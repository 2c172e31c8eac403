// Package board derives read-only views from a single task slice: the three
// workflow columns and the completion statistics behind the dashboard chart.
package board

import (
	"sort"
	"time"

	"github.com/taskflow/task-tracker-api/internal/models"
)

// TrendDays is the length of the completion trend window.
const TrendDays = 7

type Columns struct {
	New        []models.Task
	InProgress []models.Task
	Completed  []models.Task
}

// Group splits tasks into columns by status, preserving input order.
// Tasks with an unknown status land in the New column.
func Group(tasks []models.Task) Columns {
	cols := Columns{
		New:        []models.Task{},
		InProgress: []models.Task{},
		Completed:  []models.Task{},
	}
	for _, task := range tasks {
		switch task.Status {
		case models.TaskStatusInProgress:
			cols.InProgress = append(cols.InProgress, task)
		case models.TaskStatusCompleted:
			cols.Completed = append(cols.Completed, task)
		default:
			cols.New = append(cols.New, task)
		}
	}
	return cols
}

// Len returns the number of tasks across all columns.
func (c Columns) Len() int {
	return len(c.New) + len(c.InProgress) + len(c.Completed)
}

type CategoryStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

type TrendPoint struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
}

type Stats struct {
	Total          int                                   `json:"total"`
	ByStatus       map[models.TaskStatus]int             `json:"by_status"`
	ByCategory     map[models.TaskCategory]CategoryStats `json:"by_category"`
	CompletionRate float64                               `json:"completion_rate"`
	Trend          []TrendPoint                          `json:"trend"`
}

// Summarize computes statistics for tasks as of now. The trend counts
// completed tasks by the day they were last updated, oldest day first.
func Summarize(tasks []models.Task, now time.Time) Stats {
	stats := Stats{
		Total:      len(tasks),
		ByStatus:   make(map[models.TaskStatus]int, len(models.TaskStatuses)),
		ByCategory: make(map[models.TaskCategory]CategoryStats, len(models.TaskCategories)),
	}
	for _, s := range models.TaskStatuses {
		stats.ByStatus[s] = 0
	}
	for _, c := range models.TaskCategories {
		stats.ByCategory[c] = CategoryStats{}
	}

	today := truncateDay(now)
	first := today.AddDate(0, 0, -(TrendDays - 1))
	perDay := make(map[string]int, TrendDays)

	completed := 0
	for _, task := range tasks {
		stats.ByStatus[task.Status]++

		cat := stats.ByCategory[task.Category]
		cat.Total++
		if task.Status == models.TaskStatusCompleted {
			cat.Completed++
			completed++

			day := truncateDay(task.UpdatedAt.In(now.Location()))
			if !day.Before(first) && !day.After(today) {
				perDay[day.Format(time.DateOnly)]++
			}
		}
		stats.ByCategory[task.Category] = cat
	}

	for key, cat := range stats.ByCategory {
		cat.CompletionRate = rate(cat.Completed, cat.Total)
		stats.ByCategory[key] = cat
	}
	stats.CompletionRate = rate(completed, stats.Total)

	stats.Trend = make([]TrendPoint, 0, TrendDays)
	for i := 0; i < TrendDays; i++ {
		date := first.AddDate(0, 0, i).Format(time.DateOnly)
		stats.Trend = append(stats.Trend, TrendPoint{Date: date, Completed: perDay[date]})
	}
	return stats
}

// Sorted returns a copy of tasks ordered newest first, ties broken by id.
func Sorted(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
