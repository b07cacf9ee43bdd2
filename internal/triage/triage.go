// Package triage answers "what should I work on now" from the available time,
// the current energy level and whatever is blocking the user.
package triage

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"taskplanner/internal/model"
)

type Energy string

const (
	EnergyLow    Energy = "low"
	EnergyMedium Energy = "medium"
	EnergyHigh   Energy = "high"
)

func ParseEnergy(raw string) (Energy, bool) {
	switch Energy(strings.ToLower(strings.TrimSpace(raw))) {
	case EnergyLow:
		return EnergyLow, true
	case EnergyMedium:
		return EnergyMedium, true
	case EnergyHigh:
		return EnergyHigh, true
	default:
		return "", false
	}
}

type Blocker string

const (
	BlockerNone            Blocker = ""
	BlockerTooManyChoices  Blocker = "too many choices"
	BlockerDecisionFatigue Blocker = "decision fatigue"
	BlockerQuickWin        Blocker = "need a quick win"
)

// ParseBlocker matches loosely: "fatigue" or "quick-win" are enough.
func ParseBlocker(raw string) Blocker {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	switch {
	case s == "":
		return BlockerNone
	case strings.Contains(s, "choice"):
		return BlockerTooManyChoices
	case strings.Contains(s, "fatigue"), strings.Contains(s, "decision"):
		return BlockerDecisionFatigue
	case strings.Contains(s, "quick"), strings.Contains(s, "win"):
		return BlockerQuickWin
	default:
		return Blocker(s)
	}
}

const (
	maxRecommendations = 3
	shortWindowMinutes = 10
	midWindowMinutes   = 25
	nearlyDoneRatio    = 0.7
	maxSubtasksForMid  = 3
)

type Criteria struct {
	Minutes int
	Energy  Energy
	Blocker Blocker
}

// Placeholder is a generic suggestion shown when no real task fits. Its ID is
// for display only and is never stored or compared across calls.
type Placeholder struct {
	ID    string
	Title string
}

// Result holds either real tasks or, when nothing matched, placeholders.
type Result struct {
	Tasks        []model.Task
	Placeholders []Placeholder
}

func (r Result) Fallback() bool {
	return len(r.Tasks) == 0
}

// Titles lists what to show, whichever kind the result holds.
func (r Result) Titles() []string {
	var out []string
	for _, t := range r.Tasks {
		out = append(out, t.Title)
	}
	for _, p := range r.Placeholders {
		out = append(out, p.Title)
	}
	return out
}

// DefaultFallbacks are offered when the caller has none of its own.
var DefaultFallbacks = []string{
	"Take a 5-minute walk and come back",
	"Tidy your desk for two minutes",
	"Write down the one thing worrying you most",
}

// Recommend runs the filter pipeline over the pending tasks and returns at most
// three of them. The tree shape (subtasks, completion ratio) is read from the
// full task set, completed tasks included.
func Recommend(c Criteria, tasks []model.Task, fallbacks []string) Result {
	idx := model.NewTaskIndex(tasks)
	isSmall := func(t model.Task) bool {
		return t.IsSubtask() || !idx.HasChildren(t.ID)
	}

	var pending []model.Task
	for _, t := range tasks {
		if !t.IsCompleted() {
			pending = append(pending, t)
		}
	}

	filtered := pending
	switch {
	case c.Minutes <= shortWindowMinutes:
		filtered = keep(filtered, func(t model.Task) bool {
			return isSmall(t) || idx.CompletedRatio(t.ID) > nearlyDoneRatio
		})
	case c.Minutes <= midWindowMinutes:
		filtered = keep(filtered, func(t model.Task) bool {
			return len(idx.Children(t.ID)) <= maxSubtasksForMid
		})
	}

	switch c.Energy {
	case EnergyLow:
		filtered = keep(filtered, isSmall)
	case EnergyHigh:
		filtered = keep(filtered, func(t model.Task) bool { return idx.HasChildren(t.ID) })
		if len(filtered) == 0 {
			filtered = pending
		}
	}

	switch c.Blocker {
	case BlockerTooManyChoices:
		sorted := append([]model.Task(nil), filtered...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return !sorted[i].IsSubtask() && sorted[j].IsSubtask()
		})
		filtered = sorted
	case BlockerDecisionFatigue:
		if len(filtered) > maxRecommendations {
			filtered = filtered[:maxRecommendations]
		}
	case BlockerQuickWin:
		filtered = keep(filtered, isSmall)
	}

	if len(filtered) == 0 {
		return Result{Placeholders: placeholders(fallbacks)}
	}
	if len(filtered) > maxRecommendations {
		filtered = filtered[:maxRecommendations]
	}
	return Result{Tasks: append([]model.Task(nil), filtered...)}
}

func keep(tasks []model.Task, pred func(model.Task) bool) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

func placeholders(titles []string) []Placeholder {
	if len(titles) == 0 {
		titles = DefaultFallbacks
	}
	if len(titles) > maxRecommendations {
		titles = titles[:maxRecommendations]
	}
	out := make([]Placeholder, 0, len(titles))
	for _, title := range titles {
		out = append(out, Placeholder{ID: uuid.NewString(), Title: title})
	}
	return out
}
