package dag

// Simplifier is the pluggable external collaborator the core consumes
// on every argument it receives from the outside and on children
// before hashing, treating the result as equivalent under the theory.
// A real simplifier is a static rewriting/constant-folding pass; that
// pass is explicitly out of scope here, so this package only specifies
// and consumes the contract.
type Simplifier interface {
	// Simplify returns a node equivalent to e under the theory,
	// following proxies, and idempotent: Simplify(Simplify(x)) == Simplify(x).
	Simplify(m *Manager, e Edge) Edge
}

// IdentitySimplifier is the default no-op Simplifier: every node
// simplifies to itself (after proxy-chasing, which the Manager already
// does internally on every child lookup). A Simplifier implementation
// is allowed to be a no-op like this one.
type IdentitySimplifier struct{}

// Simplify implements Simplifier.
func (IdentitySimplifier) Simplify(m *Manager, e Edge) Edge {
	return m.resolve(e)
}

// Rewrite installs e as a Proxy forwarding to replacement: e's node
// becomes Kind Proxy with a simplified edge to replacement.
// RewriteDepth is replacement's depth + 1 so proxy chains are provably
// finite.
func (m *Manager) Rewrite(e Edge, replacement Edge) {
	n := m.Node(e.Node)
	if n.Kind == KindProxy {
		panic("dag: node already rewritten")
	}
	target := m.resolve(replacement)
	targetNode := m.Node(target.Node)
	n.Kind = KindProxy
	n.SimplifiedTo = target
	n.Flags.Simplified = true
	n.RewriteDepth = targetNode.RewriteDepth + 1
	m.linkParent(target, n.ID, 0)
	n.State = stateNotUnique
}
