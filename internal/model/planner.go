package model

// SourcePlanner tags calendar events produced from time blocks.
const SourcePlanner = "planner"

// TimeBlock is a planned slot on one calendar date. Times are HH:MM.
type TimeBlock struct {
	ID        string   `json:"id"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Title     string   `json:"title"`
	TaskIDs   []string `json:"taskIds"`
	Color     string   `json:"color,omitempty"`
}

func (b TimeBlock) HasTask(id string) bool {
	for _, t := range b.TaskIDs {
		if t == id {
			return true
		}
	}
	return false
}

// CalendarEvent is a dated entry. Start and End are YYYY-MM-DDTHH:MM.
type CalendarEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
	Source      string `json:"source,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Entry is one row of the key-value store.
type Entry struct {
	Key   string `gorm:"primaryKey;column:entry_key"`
	Value string
}
