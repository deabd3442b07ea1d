package dag

// Lambda hashing: because a lambda's structural key must include its
// body but bodies may share parameters with other lambdas, the hash is
// computed by traversing the body and substituting the bound parameter
// with a canonical sentinel value everywhere it occurs (including
// inside nested lambda bodies, since an outer parameter may flow into
// an inner one, e.g. λx. λy. Add(x,y)). Structural lookups that land on
// the same hash bucket are then verified by full α-equivalence
// comparison rather than trusted on the hash alone.
//
// Curried lambdas are never fused into a single tuple-domain lambda:
// MkLambda always binds exactly one parameter, and λx. λy. B is
// represented as two nested Lambda nodes.

const paramSentinel = ^uint64(0) // unlikely to collide with a real NodeID-derived hash

func fnvCombine(h uint64, x uint64) uint64 {
	const prime = 1099511628211
	h ^= x
	h *= prime
	return h
}

// canonHash computes a substitution-aware structural hash of e, with
// occurrences of param replaced by a sentinel.
func (m *Manager) canonHash(e Edge, param NodeID) uint64 {
	h := m.canonHashNode(e.Node, param)
	if e.Inverted {
		h = fnvCombine(h, 0x1)
	}
	return h
}

func (m *Manager) canonHashNode(id NodeID, param NodeID) uint64 {
	if id == param {
		return paramSentinel
	}
	n := m.Node(id)
	h := fnvCombine(14695981039346656037, uint64(n.Kind))
	switch n.Kind {
	case KindConst, KindVar, KindUF, KindParam:
		// Not structurally merged: identity is the node id itself.
		h = fnvCombine(h, uint64(id))
	case KindSlice:
		h = fnvCombine(h, uint64(n.SliceHi))
		h = fnvCombine(h, uint64(n.SliceLo))
		h = fnvCombine(h, m.canonHash(n.Children[0], param))
	default:
		for _, c := range n.Children {
			h = fnvCombine(h, m.canonHash(c, param))
		}
	}
	return h
}

// alphaEqualEdge compares two edges for α-equivalence, treating
// param1 (in e1's subtree) and param2 (in e2's subtree) as the same
// binder.
func (m *Manager) alphaEqualEdge(e1 Edge, param1 NodeID, e2 Edge, param2 NodeID) bool {
	if e1.Inverted != e2.Inverted {
		return false
	}
	return m.alphaEqualNode(e1.Node, param1, e2.Node, param2)
}

func (m *Manager) alphaEqualNode(id1 NodeID, param1 NodeID, id2 NodeID, param2 NodeID) bool {
	b1 := id1 == param1
	b2 := id2 == param2
	if b1 || b2 {
		return b1 && b2
	}
	if id1 == id2 {
		return true
	}
	n1, n2 := m.Node(id1), m.Node(id2)
	if n1.Kind != n2.Kind {
		return false
	}
	switch n1.Kind {
	case KindConst, KindVar, KindUF, KindParam:
		return false // distinct ids, not the bound params, not structurally merged
	case KindSlice:
		return n1.SliceHi == n2.SliceHi && n1.SliceLo == n2.SliceLo &&
			m.alphaEqualEdge(n1.Children[0], param1, n2.Children[0], param2)
	default:
		if len(n1.Children) != len(n2.Children) {
			return false
		}
		for i := range n1.Children {
			if !m.alphaEqualEdge(n1.Children[i], param1, n2.Children[i], param2) {
				return false
			}
		}
		return true
	}
}

// lambdaCreate hash-conses a Lambda(param, body) node using body-hash
// with α-equivalence verification rather than the plain structKey used
// by create, since two lambdas built from distinct Param instances may
// still denote the same function.
func (m *Manager) lambdaCreate(param, body Edge, fs *Sort) Edge {
	h := m.canonHash(body, param.Node)
	for id := range m.lambdas {
		cand := m.Node(id)
		if cand.Kind != KindLambda || !cand.hasHash || cand.structHash != h {
			continue
		}
		candParam := cand.Children[0].Node
		if m.alphaEqualEdge(body, param.Node, cand.Children[1], candParam) {
			m.Node(id).RefExternal++
			return Edge{Node: id}
		}
	}
	n := &Node{
		Kind: KindLambda,
		Sort: fs,
		Children: []Edge{param, body},
		RefExternal: 1,
		structHash: h,
		hasHash: true,
	}
	id := m.allocNode(n)
	m.linkParent(param, id, 0)
	m.linkParent(body, id, 1)
	m.propagateFlags(n)
	return Edge{Node: id}
}
