// Package calendar turns planner time blocks into calendar events.
package calendar

import (
	"strings"

	"taskplanner/internal/model"
)

const (
	eventIDPrefix     = "planner-"
	descriptionPrefix = "Planned tasks: "
)

// EventID is the stable id of the event mirrored from a time block. Re-syncing
// the same block overwrites rather than duplicates.
func EventID(blockID string) string {
	return eventIDPrefix + blockID
}

// ToEvent maps one block on date to its calendar event. Assigned task titles
// appear in task-set order; ids that match no task are skipped.
func ToEvent(block model.TimeBlock, date string, tasks []model.Task) model.CalendarEvent {
	var titles []string
	for _, t := range tasks {
		if block.HasTask(t.ID) {
			titles = append(titles, t.Title)
		}
	}
	description := ""
	if len(titles) > 0 {
		description = descriptionPrefix + strings.Join(titles, ", ")
	}
	return model.CalendarEvent{
		ID:          EventID(block.ID),
		Title:       block.Title,
		Start:       date + "T" + block.StartTime,
		End:         date + "T" + block.EndTime,
		Description: description,
		Source:      model.SourcePlanner,
		Color:       block.Color,
	}
}

// Events maps every block of one day.
func Events(blocks []model.TimeBlock, date string, tasks []model.Task) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, ToEvent(b, date, tasks))
	}
	return out
}

// Merge drops planner events starting on date from existing and appends fresh.
// Events from other sources or other dates are kept in place, so merging the
// same fresh set twice yields the same result.
func Merge(existing []model.CalendarEvent, date string, fresh []model.CalendarEvent) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(existing)+len(fresh))
	for _, ev := range existing {
		if ev.Source == model.SourcePlanner && strings.HasPrefix(ev.Start, date) {
			continue
		}
		out = append(out, ev)
	}
	return append(out, fresh...)
}

// OnDate returns the events whose start falls on date, any source.
func OnDate(events []model.CalendarEvent, date string) []model.CalendarEvent {
	var out []model.CalendarEvent
	for _, ev := range events {
		if strings.HasPrefix(ev.Start, date) {
			out = append(out, ev)
		}
	}
	return out
}
