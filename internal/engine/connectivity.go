package engine

import (
	"github.com/stillpoint/weft/internal/ir"
)

// Verify computes structural connectivity over a thread's fragment graph,
// using only admitted edges - lexical match scores contribute nothing to
// topology. The verdict is binary: exactly one connected component is a
// coherent narrative, anything else is a fragmentation. The engine never
// averages, merges, or bridges components; one missing edge in a linear
// chain collapses the whole chain.
//
// Bridges lists the admitted edges whose removal would increase the
// component count, in admission order.
func Verify(members []ir.FragmentID, edges []ir.Edge) ir.Connectivity {
	if len(members) == 0 {
		return ir.Connectivity{Components: 0}
	}

	components := componentCount(members, edges, -1)

	var bridges []ir.Edge
	for i, e := range edges {
		if componentCount(members, edges, i) > components {
			bridges = append(bridges, e)
		}
	}

	return ir.Connectivity{Components: components, Bridges: bridges}
}

// componentCount runs union-find over the members, skipping the edge at
// index skip (pass -1 to use every edge). Edges touching non-member
// fragments are ignored; membership is the node set, edges only join.
func componentCount(members []ir.FragmentID, edges []ir.Edge, skip int) int64 {
	index := make(map[ir.FragmentID]int, len(members))
	for i, m := range members {
		index[m] = i
	}

	parent := make([]int, len(members))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]] // path halving
			x = parent[x]
		}
		return x
	}

	count := int64(len(members))
	for i, e := range edges {
		if i == skip {
			continue
		}
		si, ok := index[e.Source]
		if !ok {
			continue
		}
		ti, ok := index[e.Target]
		if !ok {
			continue
		}
		rs, rt := find(si), find(ti)
		if rs != rt {
			parent[rs] = rt
			count--
		}
	}
	return count
}
