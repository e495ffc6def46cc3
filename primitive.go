package nanohs

import "encoding/binary"

// This file is not part of the core language; primitive functions and the
// lowering that wires them up are left to an external collaborator. It
// exists purely to give the evaluator's testable properties (sharing,
// currying, case selection) something concrete to reduce: a handful of
// primitives operating on closures that carry a little-endian uint64 in
// their PrimData buffer, plus a counting wrapper used to observe how many
// times an entry actually materializes.

// EncodeUint renders v as an 8-byte little-endian PrimData buffer.
func EncodeUint(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

// DecodeUint reads back a buffer written by EncodeUint.
func DecodeUint(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

// NewUintClosure allocates a CLOSURE_PRIM already in WHNF, carrying v.
func NewUintClosure(gc *GC, v uint64) *Closure {
	c := gc.NewClosure(ClosurePrim)
	c.PrimData = EncodeUint(v)
	return c
}

// UintValue reads v back out of a WHNF PRIM closure produced by
// NewUintClosure. ok is false if c isn't such a closure.
func UintValue(c *Closure) (v uint64, ok bool) {
	if c.Tag != ClosurePrim || len(c.PrimData) != 8 {
		return 0, false
	}
	return DecodeUint(c.PrimData), true
}

// NewConstrFunc allocates a WHNF CLOSURE_CONSTR function value for the
// given variant tag and arity, with no fields applied yet: applying it
// arity times (via Evaluator.apply, e.g. through a chain of ENTRY_APPLY)
// saturates it. An arity-0 constructor (e.g. Nil) is already saturated.
func NewConstrFunc(gc *GC, variant byte, arity int) *Closure {
	c := gc.NewClosure(ClosureConstr)
	c.Variant = variant
	c.WantArity = arity
	return c
}

// arithPrim builds a Prim that reduces the two closures in self's
// environment to WHNF, decodes them as uints, and leaves op's result in
// self. self's environment is expected to hold exactly two already-applied
// argument closures, which is the shape Evaluator.apply builds for a
// two-argument THUNK reaching want_arity 0.
func arithPrim(op func(a, b uint64) uint64) Prim {
	return func(ev *Evaluator, self *Closure) error {
		if len(self.Env) != 2 {
			return EvalError{Message: "arithmetic primitive: expected exactly two arguments"}
		}
		lhs, rhs := self.Env[0], self.Env[1]
		if err := ev.Reduce(lhs); err != nil {
			return err
		}
		if err := ev.Reduce(rhs); err != nil {
			return err
		}
		a, ok := UintValue(lhs)
		if !ok {
			return EvalError{Message: "arithmetic primitive: left operand is not a number"}
		}
		b, ok := UintValue(rhs)
		if !ok {
			return EvalError{Message: "arithmetic primitive: right operand is not a number"}
		}
		Erase(self)
		self.Tag = ClosurePrim
		self.PrimData = EncodeUint(op(a, b))
		return nil
	}
}

// AddPrim, SubPrim, and MulPrim are two-argument arithmetic primitives
// over the uint64 encoding above.
var (
	AddPrim = arithPrim(func(a, b uint64) uint64 { return a + b })
	SubPrim = arithPrim(func(a, b uint64) uint64 { return a - b })
	MulPrim = arithPrim(func(a, b uint64) uint64 { return a * b })
)

// CountingRef returns a Prim that increments *counter every time it is
// asked to materialize, then behaves exactly like ENTRY_REF toward target:
// reduce it to WHNF and copy the result into self. Wiring two distinct
// ENTRY_SELECTs (or a SELECT and a direct reference) at the same LETREC
// binding to an entry built from this lets a test observe that memoization
// kept the counter from advancing past one (the sharing property that
// makes lazy evaluation cheap), or that an unreached CASE/guard branch
// never advances it at all.
func CountingRef(counter *int, target *Closure) Prim {
	return func(ev *Evaluator, self *Closure) error {
		*counter++
		ev.gc.UseClosure(target)
		if err := ev.Reduce(target); err != nil {
			return err
		}
		CopyInto(self, target)
		ev.gc.UnuseClosure(target)
		return nil
	}
}
