package menu

import "sort"

// Node is one entry of the navigation tree. IDs are opaque and stable;
// they are what user allow-lists store, never the route itself. Routes
// are internal and must not be handed to unauthorized clients.
type Node struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Route    string `json:"route,omitempty"`
	Order    int    `json:"order"`
	Children []Node `json:"children,omitempty"`
}

// FilterByAllowedIDs reduces the tree to the entries permitted by the
// allow-list. Leaves survive iff their ID is allowed. A parent survives
// iff at least one child survives; its own ID is irrelevant. Siblings
// are sorted ascending by Order at every level. An empty allow-list
// yields an empty result. The outcome does not depend on the order of
// allowedIDs.
func FilterByAllowedIDs(tree []Node, allowedIDs []string) []Node {
	allowed := make(map[string]struct{}, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = struct{}{}
	}
	return filter(tree, allowed)
}

func filter(nodes []Node, allowed map[string]struct{}) []Node {
	var out []Node
	for _, n := range nodes {
		if len(n.Children) > 0 {
			kept := filter(n.Children, allowed)
			if len(kept) == 0 {
				continue
			}
			n.Children = kept
			out = append(out, n)
			continue
		}
		if _, ok := allowed[n.ID]; ok {
			n.Children = nil
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// AllIDs returns every leaf ID in the tree, including childless
// top-level entries. Used to validate an allow-list or to implement
// "select all".
func AllIDs(tree []Node) []string {
	var ids []string
	for _, n := range tree {
		if len(n.Children) > 0 {
			ids = append(ids, AllIDs(n.Children)...)
			continue
		}
		ids = append(ids, n.ID)
	}
	return ids
}
