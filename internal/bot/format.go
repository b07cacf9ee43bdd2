package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"

	"taskplanner/internal/model"
	"taskplanner/internal/service"
	"taskplanner/internal/timeutil"
	"taskplanner/internal/triage"
)

type treeItem struct {
	task  model.Task
	depth int
}

// pendingTree orders pending tasks parent first, children right below their
// parent. Children of a completed or missing parent are shown at top level.
func pendingTree(tasks []model.Task) []treeItem {
	idx := model.NewTaskIndex(tasks)
	visible := make(map[string]bool)
	for _, t := range tasks {
		if !t.IsCompleted() {
			visible[t.ID] = true
		}
	}

	var out []treeItem
	seen := make(map[string]bool)
	var walk func(t model.Task, depth int)
	walk = func(t model.Task, depth int) {
		if seen[t.ID] {
			return
		}
		seen[t.ID] = true
		out = append(out, treeItem{task: t, depth: depth})
		for _, child := range idx.Children(t.ID) {
			if visible[child.ID] {
				walk(child, depth+1)
			}
		}
	}
	for _, t := range tasks {
		if !visible[t.ID] {
			continue
		}
		if t.ParentID != nil && visible[*t.ParentID] {
			continue
		}
		walk(t, 0)
	}
	return out
}

func formatTask(n int, item treeItem, catNames map[string]string) string {
	var b strings.Builder
	task := item.task
	indent := strings.Repeat("   ", item.depth)

	b.WriteString(fmt.Sprintf("%s%s <b>%d.</b> %s", indent, priorityIcon(task.Priority), n, escape(normalizeTitle(task.Title))))

	var cats []string
	for _, id := range task.CategoryIDs {
		if name := strings.TrimSpace(catNames[id]); name != "" {
			cats = append(cats, escape(name))
		}
	}
	if len(cats) > 0 {
		b.WriteString(fmt.Sprintf(" <i>(%s)</i>", strings.Join(cats, ", ")))
	}
	b.WriteByte('\n')

	if task.DueDate != "" {
		due := task.DueDate
		if task.DueTime != "" {
			due += " " + task.DueTime
		}
		b.WriteString(fmt.Sprintf("%s   ⏰ %s\n", indent, escape(due)))
	}
	if task.Description != "" {
		b.WriteString(fmt.Sprintf("%s   📝 %s\n", indent, escape(strings.TrimSpace(task.Description))))
	}
	return b.String()
}

func formatEvent(ev model.CalendarEvent) string {
	start := timeutil.ClockPart(ev.Start)
	end := timeutil.ClockPart(ev.End)
	icon := "📌"
	if ev.Source == model.SourcePlanner {
		icon = "🧱"
	}
	line := fmt.Sprintf("%s %s–%s %s\n", icon, start, end, escape(ev.Title))
	if ev.Description != "" {
		line += "   " + escape(ev.Description) + "\n"
	}
	return line
}

func priorityIcon(p model.Priority) string {
	switch p {
	case model.PriorityCritical:
		return "🔴"
	case model.PriorityHigh:
		return "🟠"
	case model.PriorityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

// parseAddArgs reads "<title> [@YYYY-MM-DD [HH:MM]]".
func parseAddArgs(args string) (service.TaskInput, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return service.TaskInput{}, errors.New("usage: /add <title> [@YYYY-MM-DD [HH:MM]]")
	}
	at := strings.LastIndex(args, "@")
	if at < 0 || (at > 0 && args[at-1] != ' ') {
		return service.TaskInput{Title: args}, nil
	}

	title := strings.TrimSpace(args[:at])
	fields := strings.Fields(args[at+1:])
	if title == "" || len(fields) == 0 || len(fields) > 2 {
		return service.TaskInput{}, errors.New("usage: /add <title> [@YYYY-MM-DD [HH:MM]]")
	}
	input := service.TaskInput{Title: title, DueDate: fields[0]}
	if len(fields) == 2 {
		input.DueTime = fields[1]
	}
	return input, nil
}

// parseCriteria reads "<minutes> <energy> [blocker words]".
func parseCriteria(args string) (triage.Criteria, error) {
	fields := strings.Fields(args)
	usage := errors.New("usage: /next <minutes> <low|medium|high> [too many choices|decision fatigue|quick win]")
	if len(fields) < 2 {
		return triage.Criteria{}, usage
	}
	minutes, err := strconv.Atoi(fields[0])
	if err != nil || minutes <= 0 {
		return triage.Criteria{}, usage
	}
	energy, ok := triage.ParseEnergy(fields[1])
	if !ok {
		return triage.Criteria{}, usage
	}
	return triage.Criteria{
		Minutes: minutes,
		Energy:  energy,
		Blocker: triage.ParseBlocker(strings.Join(fields[2:], " ")),
	}, nil
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
