package dag

import "github.com/gitrdm/bvprop/bitvec"

// Kind is the node's operator tag.
type Kind int

const (
	KindConst Kind = iota
	KindVar
	KindUF
	KindParam
	KindArgs
	KindSlice
	KindAnd
	KindEq
	KindFunEq
	KindUlt
	KindAdd
	KindMul
	KindShl
	KindLshr
	KindUdiv
	KindUrem
	KindConcat
	KindApply
	KindLambda
	KindCond
	KindProxy
)

func (k Kind) String() string {
	names := [...]string{
		"Const", "Var", "UF", "Param", "Args", "Slice", "And", "Eq",
		"FunEq", "Ult", "Add", "Mul", "Shl", "Lshr", "Udiv", "Urem",
		"Concat", "Apply", "Lambda", "Cond", "Proxy",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// NodeID is a monotonically increasing identifier assigned in creation
// order. Children are always created before parents, so ascending id
// order is a valid topological order.
type NodeID int

// Edge is a tagged reference to a node: a 1-bit inversion flag folded
// into a small struct rather than a pointer tag, following the z.Lit
// idiom in the gini reference file (var<<1|sign) but widened because
// the parent-list side additionally needs a child position, which a
// single tagged integer has no room for here.
type Edge struct {
	Node NodeID
	Inverted bool
}

// Not returns the logical complement of e. Complementing twice is free
//: Not(Not(e)) == e with no new node allocated.
func (e Edge) Not() Edge {
	return Edge{Node: e.Node, Inverted: !e.Inverted}
}

// Pos returns e with the inversion flag cleared, i.e. the underlying node's edge.
func (e Edge) Pos() Edge { return Edge{Node: e.Node} }

// parentRef records one incoming edge for a node's parent list: which
// node points at us (Parent), and at which child position (Pos).
// Stored as an (id, position) pair rather than literal prev/next
// pointers; Manager.unlinkParent finds an entry by linear scan and
// removes it via swap-with-last.
type parentRef struct {
	Parent NodeID
	Pos int
}

// nodeFlags packs the boolean bookkeeping bits a node carries for
// cheap cone-propagation checks.
type nodeFlags struct {
	Parameterized bool
	LambdaBelow bool
	ApplyBelow bool
	Constraint bool
	Simplified bool
}

// lifecycleState tracks a node's position in the unique/erase/disconnect lifecycle.
type lifecycleState int

const (
	stateUnique lifecycleState = iota
	stateNotUnique
	stateErased
	stateDisconnected
	stateInvalid
)

// Node is one entry in the expression DAG.
type Node struct {
	ID NodeID
	Kind Kind
	Sort *Sort

	Children []Edge // ordered child edges, arity 0-3

	SliceHi, SliceLo int // only meaningful for KindSlice

	Const *bitvec.Value // only meaningful for KindConst

	Symbol string // optional name for Var/UF/Param/Lambda

	// ExtID is the optional external integer id a caller attaches to a
	// free variable or uninterpreted function.
	ExtID int
	HasExtID bool

	BoundLambda NodeID // for KindParam: back-link to its binding Lambda
	HasLambda bool

	// Proxy forwarding: once non-zero/valid, Kind is
	// KindProxy and SimplifiedTo is the replacement edge. RewriteDepth
	// strictly decreases across a proxy chain so chasing terminates
	//.
	SimplifiedTo Edge
	RewriteDepth int

	// structHash caches a lambda's body-traversal hash;
	// unused for non-lambda kinds.
	structHash uint64
	hasHash bool

	RefInternal int
	RefExternal int

	Parents []parentRef

	Flags nodeFlags
	State lifecycleState
}

// liveRefCount is the sum of internal and external reference counts
// used by the erase test: a node with no live references is garbage.
func (n *Node) liveRefCount() int { return n.RefInternal + n.RefExternal }

// IsConst reports whether n itself is a constant node; a Proxy node is
// not followed (Manager.Kind is the accessor that resolves proxies).
func (n *Node) IsConst() bool { return n.Kind == KindConst }
