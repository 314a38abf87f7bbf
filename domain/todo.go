package domain

import "github.com/google/uuid"

type TodoStatus string

const (
	TodoPending TodoStatus = "pending"
	TodoDone    TodoStatus = "done"
)

// TodoItem is one entry of the client-visible to-do list. ID is
// assigned once at creation and never reused; all equality and
// targeting goes through it, never through Text.
type TodoItem struct {
	ID     string     `json:"id"`
	Text   string     `json:"text"`
	Status TodoStatus `json:"status"`
	Image  string     `json:"image,omitempty"`
}

// NewTodoItem creates a pending item with a fresh unique ID.
func NewTodoItem(text string) TodoItem {
	return TodoItem{
		ID:     uuid.NewString(),
		Text:   text,
		Status: TodoPending,
	}
}

// MergeTodoLists reconciles the server-known list with a client-sent
// snapshot. Items are deduplicated by ID only; the client's copy wins
// on conflicts. Snapshot items arriving without an ID (older clients)
// are assigned a fresh one, so distinct items sharing the same text
// are all kept. Server-only items are appended after the snapshot.
func MergeTodoLists(known, snapshot []TodoItem) []TodoItem {
	merged := make([]TodoItem, 0, len(known)+len(snapshot))
	seen := make(map[string]bool, len(known)+len(snapshot))

	for _, item := range snapshot {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.Status == "" {
			item.Status = TodoPending
		}
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		merged = append(merged, item)
	}
	for _, item := range known {
		if item.ID == "" || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		merged = append(merged, item)
	}
	return merged
}
