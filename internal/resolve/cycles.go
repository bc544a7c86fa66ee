package resolve

import (
	"github.com/sghaida/odimerge/internal/contrib"
	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/diag"
)

// checkCycles fails when the replaces edges between the given contributions
// form a cycle. Nodes are visited in name order so the reported path is
// stable.
func checkCycles(cs []contrib.Contribution) error {
	edges := map[decl.ClassID][]decl.ClassID{}
	pos := map[decl.ClassID]decl.Position{}
	var nodes []decl.ClassID
	for i := range cs {
		c := &cs[i]
		if _, ok := pos[c.Declaration]; !ok {
			pos[c.Declaration] = c.Pos
			nodes = append(nodes, c.Declaration)
		}
		for _, r := range c.Replaces {
			for j := range cs {
				if cs[j].Matches(r) {
					edges[c.Declaration] = appendUnique(edges[c.Declaration], cs[j].Declaration)
				}
			}
		}
	}
	if len(edges) == 0 {
		return nil
	}
	sortIDs(nodes)
	for _, targets := range edges {
		sortIDs(targets)
	}

	const (
		white = iota
		grey
		black
	)
	color := map[decl.ClassID]int{}
	var stack []decl.ClassID
	var cycle []decl.ClassID

	var visit func(n decl.ClassID) bool
	visit = func(n decl.ClassID) bool {
		color[n] = grey
		stack = append(stack, n)
		for _, next := range edges[n] {
			switch color[next] {
			case grey:
				start := 0
				for i, s := range stack {
					if s == next {
						start = i
						break
					}
				}
				cycle = append(append(cycle, stack[start:]...), next)
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return false
	}

	for _, n := range nodes {
		if color[n] == white && visit(n) {
			return diag.At(diag.KindStructural, pos[cycle[0]], cycle[0], diag.ReplaceCycle(cycle)).
				WithCause(ErrReplaceCycle)
		}
	}
	return nil
}
