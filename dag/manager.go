// Package dag implements the hash-consed bit-vector expression graph:
// tagged edges, structural hash-consing, a sort system, symbol tables,
// reference counting with a parent-list cone walk, and proxy rewrites.
//
// The unique table is grounded on the strashed AND-inverter graph in
// the gini reference file (other_examples/...irifrance-gini-logic-c.go.go):
// C.nodes + C.strash implement exactly the "structural equality
// on kind + child-edge list implies identity", generalized here from a
// single 2-input AND gate to the full bit-vector operator set, and from
// a bare tagged z.Lit to a struct Edge since the parent-list side needs
// a child position tag the literal encoding has no room for.
package dag

import (
	"fmt"
	"strconv"
	"strings"

	bvprop "github.com/gitrdm/bvprop"
	"github.com/gitrdm/bvprop/bitvec"
)

// Manager owns one DAG's worth of nodes, tables, and options as a
// per-solver context: everything the DAG needs is reachable from one
// Manager value, and two Managers never share nodes.
type Manager struct {
	nodes []*Node // arena; nodes[id-1] is the node with NodeID id

	unique map[string]NodeID // structural key -> canonical node (unique table)

	inputs map[NodeID]bool // free variables and uninterpreted functions
	lambdas map[NodeID]bool // live Lambda nodes
	symbolToNode map[string]NodeID // symbol name -> node, for lookup by name
	parameterized map[NodeID]map[NodeID]bool // node -> set of free param ids
	feqs map[NodeID]bool // live function-equality (FunEq) nodes

	// SortExp controls commutative-operator child sorting by id
	//.
	SortExp bool

	boolSort *Sort
}

// NewManager creates an empty DAG context. There is no Close method:
// drop the reference once the embedding solver is destroyed; there is no
// process-global state to tear down beyond what the Manager itself owns.
func NewManager() *Manager {
	m := &Manager{
		unique: make(map[string]NodeID),
		inputs: make(map[NodeID]bool),
		lambdas: make(map[NodeID]bool),
		symbolToNode: make(map[string]NodeID),
		parameterized: make(map[NodeID]map[NodeID]bool),
		feqs: make(map[NodeID]bool),
		SortExp: true,
	}
	m.boolSort = &Sort{Kind: SortBool}
	return m
}

// BoolSort returns the single interned Bool sort.
func (m *Manager) BoolSort() *Sort { return m.boolSort }

// BitVecSort returns a BitVec(w) sort. Each call allocates a new *Sort;
// sorts are compared by structure (key), not by pointer.
func (m *Manager) BitVecSort(w int) *Sort {
	if w < 1 {
		panic(fmt.Errorf("%w: BitVec(%d)", bvprop.ErrZeroWidth, w))
	}
	return &Sort{Kind: SortBitVec, Width: w}
}

// Node returns the live node for id. Panics if id is out of range;
// callers within this package always hold a valid id because nodes are
// only removed from the arena slot, never renumbered.
func (m *Manager) Node(id NodeID) *Node {
	return m.nodes[id-1]
}

func (m *Manager) allocNode(n *Node) NodeID {
	id := NodeID(len(m.nodes) + 1)
	n.ID = id
	n.State = stateUnique
	m.nodes = append(m.nodes, n)
	return id
}

// resolve chases Proxy forwarding edges until it
// reaches a non-Proxy node, composing inversion flags along the way.
// Proxy chains are finite: each hop strictly decreases RewriteDepth.
func (m *Manager) resolve(e Edge) Edge {
	depth := 0
	for {
		n := m.Node(e.Node)
		if n.Kind != KindProxy {
			return e
		}
		depth++
		if depth > len(m.nodes)+1 {
			panic("dag: proxy chain did not terminate (RewriteDepth invariant violated)")
		}
		target := n.SimplifiedTo
		e = Edge{Node: target.Node, Inverted: e.Inverted != target.Inverted}
	}
}

// structKey computes the hash-consing key for a node shape. Const,
// Var, UF, Param are identified by id, not structurally merged
//, so this is only called for arity>0 operator kinds.
func structKey(kind Kind, children []Edge, sliceHi, sliceLo int) string {
	var b strings.Builder
	b.WriteString(kind.String())
	if kind == KindSlice {
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(sliceHi))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(sliceLo))
		b.WriteByte(']')
	}
	for _, c := range children {
		b.WriteByte('(')
		b.WriteString(strconv.Itoa(int(c.Node)))
		if c.Inverted {
			b.WriteByte('!')
		}
		b.WriteByte(')')
	}
	return b.String()
}

// create is the shared hash-consing entry point for arity>0 kinds:
// it returns the unique node with the given shape, allocating one if
// none exists yet. Children are resolved through proxies first.
//
// Reference convention: constructors never consume the references of
// their argument edges. Each argument's own external reference, held
// by whatever caller built it, is untouched; creating a parent simply
// adds a separate internal reference from parent to child. The
// returned edge is itself a fresh external reference the caller now
// owns and must eventually Release.
func (m *Manager) create(kind Kind, sort *Sort, children []Edge, sliceHi, sliceLo int) Edge {
	resolved := make([]Edge, len(children))
	for i, c := range children {
		resolved[i] = m.resolve(c)
	}
	key := structKey(kind, resolved, sliceHi, sliceLo)
	if id, ok := m.unique[key]; ok {
		m.Node(id).RefExternal++
		return Edge{Node: id}
	}
	n := &Node{
		Kind: kind,
		Sort: sort,
		Children: resolved,
		SliceHi: sliceHi,
		SliceLo: sliceLo,
		RefExternal: 1,
	}
	id := m.allocNode(n)
	m.unique[key] = id
	for pos, c := range resolved {
		m.linkParent(c, id, pos)
	}
	m.propagateFlags(n)
	return Edge{Node: id}
}

// linkParent registers parent `p` at child position `pos` in the
// parent list of c.Node. Stored as an (id,pos) pair appended to the
// child's Parents slice, an arena-and-indices stand-in for a pointer-based
// parent list.
func (m *Manager) linkParent(c Edge, p NodeID, pos int) {
	child := m.Node(c.Node)
	child.Parents = append(child.Parents, parentRef{Parent: p, Pos: pos})
	m.retainInternal(c.Node)
}

// unlinkParent removes one occurrence of (p,pos) from c's parent list:
// a linear scan finds it and swap-with-last removes it, the idiomatic Go stand-in for a
// prev/next doubly-linked list (see DESIGN.md).
func (m *Manager) unlinkParent(c NodeID, p NodeID, pos int) {
	child := m.Node(c)
	for i, pr := range child.Parents {
		if pr.Parent == p && pr.Pos == pos {
			last := len(child.Parents) - 1
			child.Parents[i] = child.Parents[last]
			child.Parents = child.Parents[:last]
			return
		}
	}
}

func (m *Manager) propagateFlags(n *Node) {
	for _, c := range n.Children {
		cn := m.Node(c.Node)
		if cn.Flags.Parameterized || cn.Kind == KindParam {
			n.Flags.Parameterized = true
		}
		if cn.Flags.LambdaBelow || cn.Kind == KindLambda {
			n.Flags.LambdaBelow = true
		}
		if cn.Flags.ApplyBelow || cn.Kind == KindApply {
			n.Flags.ApplyBelow = true
		}
	}
}

func (m *Manager) retainInternal(id NodeID) {
	m.Node(id).RefInternal++
}

// release drops one externally-held reference to e. When internal+
// external reaches zero the node is erased, its children's internal
// references are dropped in turn (recursively erasing any that also
// reach zero), and the node is removed from the unique table and
// marked DISCONNECTED.
func (m *Manager) release(e Edge) {
	n := m.Node(e.Node)
	if n.RefExternal == 0 {
		panic(fmt.Errorf("dag: Release called with no outstanding external reference on node %d", n.ID))
	}
	n.RefExternal--
	if n.liveRefCount() > 0 {
		return
	}
	m.erase(n)
}

func (m *Manager) erase(n *Node) {
	if n.State == stateErased || n.State == stateDisconnected {
		return
	}
	n.State = stateErased
	if len(n.Children) > 0 {
		key := structKey(n.Kind, n.Children, n.SliceHi, n.SliceLo)
		delete(m.unique, key)
	}
	if n.Kind == KindConst {
		key := "C" + n.Const.String()
		if n.Sort.IsBool() {
			key = "CBfalse"
			if n.Const.IsTrue() {
				key = "CBtrue"
			}
		}
		if m.unique[key] == n.ID {
			delete(m.unique, key)
		}
	}
	delete(m.symbolToNode, n.Symbol)
	delete(m.inputs, n.ID)
	delete(m.lambdas, n.ID)
	delete(m.parameterized, n.ID)
	delete(m.feqs, n.ID)
	for pos, c := range n.Children {
		m.unlinkParent(c.Node, n.ID, pos)
		cn := m.Node(c.Node)
		if cn.RefInternal > 0 {
			cn.RefInternal--
		}
		if cn.liveRefCount() == 0 {
			m.erase(cn)
		}
	}
	n.State = stateDisconnected
}

// Retain bumps e's external reference count, for an embedder holding a
// handle returned from a constructor.
func (m *Manager) Retain(e Edge) Edge {
	m.Node(e.Node).RefExternal++
	return e
}

// Release drops an externally held handle.
func (m *Manager) Release(e Edge) {
	m.release(e)
}

// Sort returns the sort of the node e refers to (ignoring inversion,
// which never changes sort), chasing proxies first.
func (m *Manager) Sort(e Edge) *Sort {
	return m.Node(m.resolve(e).Node).Sort
}

// MkConst returns the constant node for v, normalized so a constant
// with LSB 0 is stored as-is; an odd constant is stored as its
// complement and the returned edge is inverted, so the unique table
// never holds both polarities of the same constant.
func (m *Manager) MkConst(v bitvec.Value) Edge {
	inverted := false
	stored := v
	if v.Width() >= 1 && v.GetBit(0) == 1 {
		stored = v.Not()
		inverted = true
	}
	key := "C" + stored.String()
	if id, ok := m.unique[key]; ok {
		m.Node(id).RefExternal++
		return Edge{Node: id, Inverted: inverted}
	}
	n := &Node{Kind: KindConst, Sort: m.BitVecSort(v.Width()), RefExternal: 1}
	cv := stored
	n.Const = &cv
	id := m.allocNode(n)
	m.unique[key] = id
	return Edge{Node: id, Inverted: inverted}
}

// MkBoolConst returns the Bool-sorted constant true or false, hash-consed
// the same way as MkConst's BitVec constants. Separate from MkConst
// because Bool and BitVec(1) are distinct sorts in this theory: a
// Simplifier folding a comparison to a known truth value needs a
// Bool-sorted result, not a BitVec(1) one.
func (m *Manager) MkBoolConst(b bool) Edge {
	key := "CBfalse"
	v := bitvec.New(1)
	if b {
		key = "CBtrue"
		v = bitvec.One(1)
	}
	if id, ok := m.unique[key]; ok {
		m.Node(id).RefExternal++
		return Edge{Node: id}
	}
	n := &Node{Kind: KindConst, Sort: m.boolSort, RefExternal: 1}
	n.Const = &v
	id := m.allocNode(n)
	m.unique[key] = id
	return Edge{Node: id}
}

// MkVar creates a fresh free variable of the given sort. symbol may be
// empty.
func (m *Manager) MkVar(sort *Sort, symbol string) Edge {
	n := &Node{Kind: KindVar, Sort: sort, Symbol: symbol, RefExternal: 1}
	id := m.allocNode(n)
	m.inputs[id] = true
	if symbol != "" {
		m.symbolToNode[symbol] = id
	}
	return Edge{Node: id}
}

// MkUF creates a fresh uninterpreted function/array symbol of the
// given (necessarily Fun or Array) sort.
func (m *Manager) MkUF(sort *Sort, symbol string) Edge {
	n := &Node{Kind: KindUF, Sort: sort, Symbol: symbol, RefExternal: 1}
	id := m.allocNode(n)
	m.inputs[id] = true
	if symbol != "" {
		m.symbolToNode[symbol] = id
	}
	return Edge{Node: id}
}

// MkParam creates a bound parameter node for use as a Lambda's binder.
func (m *Manager) MkParam(sort *Sort, symbol string) Edge {
	n := &Node{Kind: KindParam, Sort: sort, Symbol: symbol, Flags: nodeFlags{Parameterized: true}, RefExternal: 1}
	id := m.allocNode(n)
	if symbol != "" {
		m.symbolToNode[symbol] = id
	}
	return Edge{Node: id}
}

// SetExtID attaches an external integer id to a free variable/UF node
//.
func (m *Manager) SetExtID(e Edge, id int) {
	n := m.Node(e.Node)
	n.ExtID = id
	n.HasExtID = true
}

// LookupSymbol returns the node bound to name, if any.
func (m *Manager) LookupSymbol(name string) (Edge, bool) {
	id, ok := m.symbolToNode[name]
	if !ok {
		return Edge{}, false
	}
	return Edge{Node: id}, true
}

// IsInput reports whether e's underlying node is a free Var or UF.
func (m *Manager) IsInput(e Edge) bool {
	return m.inputs[e.Node]
}
