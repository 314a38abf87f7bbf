package domain

// Fact is a small remembered value used to resolve vague follow-up
// references ("delete it"). Facts are overwritten on each relevant
// tool execution and never grow unbounded.
type Fact struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Fact keys written by the tool executors.
const (
	FactLastAddedProduct   = "last_added_product"
	FactLastRemovedProduct = "last_removed_product"
	FactLastAddedOrder     = "last_added_order"
	FactLastRemovedOrder   = "last_removed_order"
)
