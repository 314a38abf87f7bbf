package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTodoItemAssignsDistinctIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		item := NewTodoItem("same text")
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
		assert.Equal(t, TodoPending, item.Status)
	}
}

// Toggling one item's status must never change any other item, even
// when items share the same text.
func TestTogglingOneItemLeavesOthersAlone(t *testing.T) {
	items := []TodoItem{
		NewTodoItem("buy milk"),
		NewTodoItem("buy milk"),
		NewTodoItem("buy milk"),
	}

	target := items[1].ID
	for i := range items {
		if items[i].ID == target {
			items[i].Status = TodoDone
		}
	}

	assert.Equal(t, TodoPending, items[0].Status)
	assert.Equal(t, TodoDone, items[1].Status)
	assert.Equal(t, TodoPending, items[2].Status)
}

func TestMergeTodoListsDedupsByIDNotText(t *testing.T) {
	snapshot := []TodoItem{
		{ID: "a", Text: "buy milk", Status: TodoPending},
		{ID: "b", Text: "buy milk", Status: TodoDone},
	}

	merged := MergeTodoLists(nil, snapshot)

	require.Len(t, merged, 2)
	assert.Equal(t, "a", merged[0].ID)
	assert.Equal(t, "b", merged[1].ID)
}

func TestMergeTodoListsClientWinsOnConflict(t *testing.T) {
	known := []TodoItem{
		{ID: "a", Text: "buy milk", Status: TodoPending},
		{ID: "srv", Text: "server only", Status: TodoPending},
	}
	snapshot := []TodoItem{
		{ID: "a", Text: "buy milk", Status: TodoDone},
	}

	merged := MergeTodoLists(known, snapshot)

	require.Len(t, merged, 2)
	assert.Equal(t, TodoDone, merged[0].Status)
	assert.Equal(t, "srv", merged[1].ID)
}

func TestMergeTodoListsAssignsIDsToLegacyItems(t *testing.T) {
	snapshot := []TodoItem{
		{Text: "no id yet"},
		{Text: "no id yet"},
	}

	merged := MergeTodoLists(nil, snapshot)

	require.Len(t, merged, 2, "distinct items sharing text must both survive")
	assert.NotEmpty(t, merged[0].ID)
	assert.NotEmpty(t, merged[1].ID)
	assert.NotEqual(t, merged[0].ID, merged[1].ID)
	assert.Equal(t, TodoPending, merged[0].Status)
}

func TestMergeTodoListsDropsDuplicateSnapshotIDs(t *testing.T) {
	snapshot := []TodoItem{
		{ID: "a", Text: "first", Status: TodoPending},
		{ID: "a", Text: "second", Status: TodoDone},
	}

	merged := MergeTodoLists(nil, snapshot)

	require.Len(t, merged, 1)
	assert.Equal(t, "first", merged[0].Text)
}
