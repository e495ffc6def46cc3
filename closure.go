package nanohs

// ClosureTag identifies the shape of a Closure's payload
// (original_source/rts/closure.h's closure_tag).
type ClosureTag int

const (
	// ClosureNull marks a closure that has been allocated but not yet
	// filled in: the placeholder bindings a LETREC creates before their
	// right-hand sides are materialized, and CASE's scrutinee slot while
	// it is being reduced. A well-formed reduction never observes one in
	// WHNF position once the graph has settled.
	ClosureNull ClosureTag = iota
	ClosurePrim
	ClosureConstr
	ClosureThunk
)

// EntryTag identifies the shape of an Entry's payload
// (original_source/rts/closure.h's entry_tag).
type EntryTag int

const (
	EntryPrim EntryTag = iota
	EntryRef
	EntrySelect
	EntryApply
	EntryCase
	EntryLetrec
	EntryLam
)

// Prim is the code a CLOSURE_PRIM/ENTRY_PRIM carries: given the evaluator
// (so it can reduce its own arguments to WHNF) and the self-closure whose
// environment holds already-applied argument closures, it must leave self
// in a valid WHNF state before returning. A minimal ABI would pass only
// self; ev is threaded through here because Reduce is a method on
// Evaluator rather than a process-global function, per the preference for
// explicit handles over package-level state.
type Prim func(ev *Evaluator, self *Closure) error

// Closure is a graph-reduction heap object: a saturated primitive value, a
// (possibly partially applied) data constructor, or a thunk awaiting
// reduction to weak head normal form.
type Closure struct {
	Tag ClosureTag
	gc  gcBits

	// ClosurePrim
	PrimData []byte

	// ClosureConstr
	Variant   byte
	WantArity int
	Fields    []*Closure

	// ClosureThunk
	Env   []*Closure
	Entry *Entry
}

// Entry is an unevaluated code template: the static half of a thunk, built
// once and shared across every Closure that points to it with a different
// environment.
type Entry struct {
	Tag EntryTag
	gc  gcBits

	Prim Prim // EntryPrim

	Ref *Closure // EntryRef

	SelectIdx int // EntrySelect

	ApplyFun MaskedEntry // EntryApply
	ApplyArg MaskedEntry

	CaseScrutinee MaskedEntry   // EntryCase
	CaseBranches  []MaskedEntry

	LetrecBody     MaskedEntry // EntryLetrec
	LetrecBindings []MaskedEntry

	LamBody *Entry // EntryLam
}

// Mask selects a subset of an environment's positions. An equivalent
// design might use integer index vectors instead; a boolean-per-position
// mask the same length as the environment is the more direct Go reading
// of the underlying bitmask, and correctness only depends on it selecting
// the exact same subset.
type Mask []bool

// MaskedEntry pairs an Entry with the mask that selects, from whatever
// environment it is materialized against, the slice that Entry expects as
// its own free-variable environment.
type MaskedEntry struct {
	Mask  Mask
	Entry *Entry
}

// MaskEnv returns the elements of env selected by mask, in order
// (original_source/rts/nf.c's mask_env).
func MaskEnv(mask Mask, env []*Closure) []*Closure {
	var out []*Closure
	for i, c := range env {
		if i < len(mask) && mask[i] {
			out = append(out, c)
		}
	}
	return out
}

// MaskConcatEnv treats env1++env2 as a single conceptual environment and
// returns the elements mask selects from it (original_source/rts/nf.c's
// mask_concat_env), used when materializing a CASE branch or LETREC body
// whose free-variable mask ranges over both the outer environment and the
// bindings/fields just introduced.
func MaskConcatEnv(mask Mask, env1, env2 []*Closure) []*Closure {
	var out []*Closure
	for i, c := range env1 {
		if i < len(mask) && mask[i] {
			out = append(out, c)
		}
	}
	base := len(env1)
	for i, c := range env2 {
		idx := base + i
		if idx < len(mask) && mask[idx] {
			out = append(out, c)
		}
	}
	return out
}

// ExtendEnv appends arg to env, returning a new slice (original_source/
// rts/nf.c's extend_env). Used both to build a one-argument-richer
// thunk environment in apply, and to extend a CONSTR's field list by one.
func ExtendEnv(env []*Closure, arg *Closure) []*Closure {
	out := make([]*Closure, len(env)+1)
	copy(out, env)
	out[len(env)] = arg
	return out
}

// Erase resets c's payload fields to their zero value, ahead of
// overwriting its tag and payload in place (original_source/rts/closure.c's
// erase_closure). In-place update is how two closures come to share a
// single memoized reduction: whichever one reduces first erases and
// overwrites itself, and anyone else holding that same pointer observes
// the new, shared WHNF value.
func Erase(c *Closure) {
	c.PrimData = nil
	c.Variant = 0
	c.WantArity = 0
	c.Fields = nil
	c.Env = nil
	c.Entry = nil
}

// CopyInto deep-copies src's tag and payload into dest in place
// (original_source/rts/closure.c's copy_closure). Buffers and slices are
// duplicated; the elements they reference (sub-closures, entries) are
// shared, not cloned.
func CopyInto(dest, src *Closure) {
	Erase(dest)
	dest.Tag = src.Tag
	if src.PrimData != nil {
		dest.PrimData = append([]byte(nil), src.PrimData...)
	}
	dest.Variant = src.Variant
	dest.WantArity = src.WantArity
	if src.Fields != nil {
		dest.Fields = append([]*Closure(nil), src.Fields...)
	}
	if src.Env != nil {
		dest.Env = append([]*Closure(nil), src.Env...)
	}
	dest.Entry = src.Entry
}
