package dag

import "fmt"

// SortKind distinguishes the handful of sort shapes this theory supports.
type SortKind int

const (
	SortBool SortKind = iota
	SortBitVec
	SortTuple
	SortArray
	SortFun
)

// Sort is compared by structure: two Sorts built with the same shape
// have the same key() and compare equal wherever the dag package checks
// sorts. Sorts are not interned: Manager.BitVecSort allocates a new
// *Sort on every call, and only Manager.BoolSort returns one shared value.
type Sort struct {
	Kind SortKind
	Width int // BitVec(w)
	Elems []*Sort // Tuple([sort...]) elements, or Fun domain tuple
	Index *Sort // Array index sort
	Elem *Sort // Array element sort
	Domain *Sort // Fun domain (a Tuple sort)
	Codomain *Sort // Fun codomain
}

func boolSortKey() string { return "B" }

func (s *Sort) key() string {
	switch s.Kind {
	case SortBool:
		return "B"
	case SortBitVec:
		return fmt.Sprintf("V%d", s.Width)
	case SortTuple:
		out := "T("
		for _, e := range s.Elems {
			out += e.key() + ","
		}
		return out + ")"
	case SortArray:
		return fmt.Sprintf("A(%s,%s)", s.Index.key(), s.Elem.key())
	case SortFun:
		return fmt.Sprintf("F(%s->%s)", s.Domain.key(), s.Codomain.key())
	default:
		panic("dag: unknown sort kind")
	}
}

// String renders a human-readable sort, e.g. "BitVec(8)", "Bool".
func (s *Sort) String() string {
	switch s.Kind {
	case SortBool:
		return "Bool"
	case SortBitVec:
		return fmt.Sprintf("BitVec(%d)", s.Width)
	case SortTuple:
		out := "Tuple("
		for i, e := range s.Elems {
			if i > 0 {
				out += ", "
			}
			out += e.String()
		}
		return out + ")"
	case SortArray:
		return fmt.Sprintf("Array(%s,%s)", s.Index, s.Elem)
	case SortFun:
		return fmt.Sprintf("Fun(%s,%s)", s.Domain, s.Codomain)
	default:
		return "?"
	}
}

// IsBitVec reports whether s is BitVec(w) for some w.
func (s *Sort) IsBitVec() bool { return s.Kind == SortBitVec }

// IsBool reports whether s is Bool.
func (s *Sort) IsBool() bool { return s.Kind == SortBool }
