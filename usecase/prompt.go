package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
)

// SystemPrompt is the first entry of every session's history.
const SystemPrompt = `You are an assistant that helps manage a todo list and can interact with a Shopify store using available tools.
Instructions:

- If the user asks to add a new task to the todo list, ONLY add the task to the list; do NOT execute or complete the task without explicit approval.
- When a task is completed, update its status to 'done', but do NOT remove it from the list.
- Always answer with the full todo list in mind, never invent or drop tasks.
- If the user's request is not clear enough or does not match any task in the todo list, ask a follow-up question and wait for further instructions.
- If the user's message does NOT request to add, complete, or remove a task, leave the todo list unchanged.
- If a task involves a Shopify action (such as creating, listing, or removing a product or order) and the user asks you to execute it, use your tools to solve it. For all other tasks, follow the user's instructions truthfully and directly.
- When a tool reports a failure, explain the failure to the user in plain language instead of retrying forever.`

// factLabels maps fact keys to the human-readable labels used in the
// context block. Unknown keys fall back to the raw key.
var factLabels = map[string]string{
	domain.FactLastAddedProduct:   "Last product added",
	domain.FactLastRemovedProduct: "Last product removed",
	domain.FactLastAddedOrder:     "Last order created",
	domain.FactLastRemovedOrder:   "Last order removed",
}

// BuildPrompt composes the effective user turn from the raw message,
// the current to-do snapshot and the memory facts. It is a pure
// function: identical inputs produce byte-identical output. Every fact
// present is included (vague follow-ups like "delete it" need them);
// an empty fact map produces no context block at all.
func BuildPrompt(message string, todos []domain.TodoItem, facts map[string]domain.Fact) string {
	var b strings.Builder

	b.WriteString("Here is the current todo list. Each task has an 'id', a 'text' and a 'status' (either 'pending' or 'done'):\n")
	if len(todos) == 0 {
		b.WriteString("Empty!\n")
	} else {
		for i, todo := range todos {
			fmt.Fprintf(&b, "%d. %s (id: %s, status: %s)\n", i+1, todo.Text, todo.ID, todo.Status)
		}
	}

	if len(facts) > 0 {
		keys := make([]string, 0, len(facts))
		for k := range facts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n--- context ---\n")
		for _, k := range keys {
			label, ok := factLabels[k]
			if !ok {
				label = k
			}
			fact := facts[k]
			if fact.Title != "" {
				fmt.Fprintf(&b, "%s: %s (id: %s)\n", label, fact.Title, fact.ID)
			} else {
				fmt.Fprintf(&b, "%s: id %s\n", label, fact.ID)
			}
		}
		b.WriteString("--- end context ---\n")
	}

	fmt.Fprintf(&b, "\nUser message: %s\n", message)
	return b.String()
}
