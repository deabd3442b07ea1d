package dag

import "github.com/gitrdm/bvprop/bitvec"

// Kind returns e's node kind, after chasing any proxy.
func (m *Manager) Kind(e Edge) Kind {
	return m.Node(m.resolve(e).Node).Kind
}

// Children returns e's child edges, after chasing any proxy. The
// returned edges are NOT adjusted for e's own inversion: callers that
// need "child of the effective value" should consult e.Inverted
// themselves.
func (m *Manager) Children(e Edge) []Edge {
	return m.Node(m.resolve(e).Node).Children
}

// SliceBounds returns (hi, lo) for a Slice node.
func (m *Manager) SliceBounds(e Edge) (int, int) {
	n := m.Node(m.resolve(e).Node)
	return n.SliceHi, n.SliceLo
}

// ConstValue returns the constant value for e, honoring e's inversion,
// and ok=false if e is not (after proxy-chasing) a Const node.
func (m *Manager) ConstValue(e Edge) (bitvec.Value, bool) {
	r := m.resolve(e)
	n := m.Node(r.Node)
	if n.Kind != KindConst {
		return bitvec.Value{}, false
	}
	v := *n.Const
	if r.Inverted {
		v = v.Not()
	}
	return v, true
}

// Symbol returns e's symbol name, if any.
func (m *Manager) Symbol(e Edge) string {
	return m.Node(m.resolve(e).Node).Symbol
}

// IsParameterized reports whether e's subtree contains a free
// (unbound-at-this-point) parameter.
func (m *Manager) IsParameterized(e Edge) bool {
	return m.Node(m.resolve(e).Node).Flags.Parameterized
}

// Width returns the bit-width of e's sort; panics if e is not
// BitVec-sorted.
func (m *Manager) Width(e Edge) int {
	s := m.Sort(m.resolve(e))
	requireBitVec(s, "Width")
	return s.Width
}

// NumNodes returns the number of live (non-erased) nodes, for tests
// and statistics.
func (m *Manager) NumNodes() int {
	n := 0
	for _, nd := range m.nodes {
		if nd.State != stateErased && nd.State != stateDisconnected {
			n++
		}
	}
	return n
}

// Parents returns the ids of nodes that reference id as a child, one
// entry per incoming edge; the child positions are not returned.
func (m *Manager) Parents(id NodeID) []NodeID {
	n := m.Node(id)
	out := make([]NodeID, len(n.Parents))
	for i, p := range n.Parents {
		out[i] = p.Parent
	}
	return out
}
