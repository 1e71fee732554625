// Package tree derives the sidebar forest from the flat collection table.
//
// Functions here are pure: they take snapshots and return new values, never
// mutating their inputs. The workspace owns the canonical state.
package tree

import (
	"sort"

	"github.com/d-elbel/curlew/internal/core"
)

// Node is a collection plus its direct children.
type Node struct {
	Collection *core.Collection
	Children   []*Node
}

// Build converts a flat collection list into an ordered forest. A parent
// reference to an id that is not in the input is treated the same as no
// parent: the node is demoted to a root rather than rejected. Linkage is by
// index lookup, never traversal, so malformed cyclic input cannot hang the
// build; it only yields unreachable nodes.
func Build(collections []*core.Collection) []*Node {
	index := make(map[string]*Node, len(collections))
	for _, c := range collections {
		index[c.ID()] = &Node{Collection: c}
	}

	var roots []*Node
	for _, c := range collections {
		node := index[c.ID()]
		if pid := c.ParentID(); pid != nil {
			if parent, ok := index[*pid]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	return roots
}

// Count returns the number of nodes reachable from the given forest.
func Count(roots []*Node) int {
	total := 0
	for _, n := range roots {
		total += 1 + Count(n.Children)
	}
	return total
}

// OrderRequests returns the requests of one sort scope in display order:
// ascending explicit sort order first, then requests without one, with the id
// as the tie-break so the order is always a strict total order.
func OrderRequests(requests []*core.Request) []*core.Request {
	result := make([]*core.Request, len(requests))
	copy(result, requests)

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		ao, bo := a.SortOrder(), b.SortOrder()
		switch {
		case ao != nil && bo != nil:
			if *ao != *bo {
				return *ao < *bo
			}
			return a.ID() < b.ID()
		case ao != nil:
			return true
		case bo != nil:
			return false
		default:
			return a.ID() < b.ID()
		}
	})

	return result
}
