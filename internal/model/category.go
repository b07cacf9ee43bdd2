package model

// Category groups tasks by area (work, health, study, etc.).
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Project collects tasks under a shared goal.
type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Color       string   `json:"color,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	Status      string   `json:"status,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
}
