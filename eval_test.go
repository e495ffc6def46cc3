package nanohs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constPrim(v uint64) Prim {
	return func(ev *Evaluator, self *Closure) error {
		self.Tag = ClosurePrim
		self.PrimData = EncodeUint(v)
		return nil
	}
}

func TestReduce_PrimAndConstrAreAlreadyWHNF(t *testing.T) {
	gc := NewGC(nil)
	ev := NewEvaluator(gc)

	prim := NewUintClosure(gc, 5)
	require.NoError(t, ev.Reduce(prim))
	v, ok := UintValue(prim)
	require.True(t, ok)
	assert.EqualValues(t, 5, v)

	constr := NewConstrFunc(gc, 1, 0)
	require.NoError(t, ev.Reduce(constr))
	assert.Equal(t, ClosureConstr, constr.Tag)
}

func TestReduce_ArithmeticPrimitive(t *testing.T) {
	gc := NewGC(nil)
	ev := NewEvaluator(gc)

	a := NewUintClosure(gc, 3)
	b := NewUintClosure(gc, 4)

	thunk := gc.NewClosure(ClosureThunk)
	thunk.Env = []*Closure{a, b}
	thunk.Entry = gc.NewEntry(EntryPrim)
	thunk.Entry.Prim = AddPrim

	require.NoError(t, ev.Reduce(thunk))
	v, ok := UintValue(thunk)
	require.True(t, ok)
	assert.EqualValues(t, 7, v)
}

func TestReduce_LetrecSharingMaterializesOnce(t *testing.T) {
	gc := NewGC(nil)
	ev := NewEvaluator(gc)

	counter := 0
	value := NewUintClosure(gc, 42)

	bindingEntry := gc.NewEntry(EntryPrim)
	bindingEntry.Prim = CountingRef(&counter, value)

	letrecEntry := gc.NewEntry(EntryLetrec)
	letrecEntry.LetrecBindings = []MaskedEntry{{Mask: Mask{}, Entry: bindingEntry}}
	selectEntry := gc.NewEntry(EntrySelect)
	selectEntry.SelectIdx = 0
	letrecEntry.LetrecBody = MaskedEntry{Mask: Mask{true}, Entry: selectEntry}

	root := gc.NewClosure(ClosureThunk)
	root.Entry = letrecEntry

	require.NoError(t, ev.Reduce(root))
	v, ok := UintValue(root)
	require.True(t, ok)
	assert.EqualValues(t, 42, v)
	assert.Equal(t, 1, counter, "the letrec binding must materialize exactly once")

	// Reducing again (the closure has already settled to a PRIM) must not
	// re-invoke the binding's code.
	require.NoError(t, ev.Reduce(root))
	assert.Equal(t, 1, counter)
}

func TestReduce_CaseNeverTouchesUntakenBranch(t *testing.T) {
	gc := NewGC(nil)
	ev := NewEvaluator(gc)

	scrutinee := NewConstrFunc(gc, 0, 0)

	refEntry := gc.NewEntry(EntryRef)
	refEntry.Ref = scrutinee

	takenBranch := gc.NewEntry(EntryPrim)
	takenBranch.Prim = constPrim(1)

	untakenCounter := 0
	untakenBranch := gc.NewEntry(EntryPrim)
	untakenBranch.Prim = CountingRef(&untakenCounter, NewUintClosure(gc, 99))

	caseEntry := gc.NewEntry(EntryCase)
	caseEntry.CaseScrutinee = MaskedEntry{Mask: Mask{}, Entry: refEntry}
	caseEntry.CaseBranches = []MaskedEntry{
		{Mask: Mask{}, Entry: takenBranch},
		{Mask: Mask{}, Entry: untakenBranch},
	}

	root := gc.NewClosure(ClosureThunk)
	root.Entry = caseEntry

	require.NoError(t, ev.Reduce(root))
	v, ok := UintValue(root)
	require.True(t, ok)
	assert.EqualValues(t, 1, v)
	assert.Equal(t, 0, untakenCounter, "the branch for the variant not matched must never run")
}

func TestApply_ConstructorCurriesInArgumentOrder(t *testing.T) {
	gc := NewGC(nil)
	ev := NewEvaluator(gc)

	fn := NewConstrFunc(gc, 7, 2)
	arg1 := NewUintClosure(gc, 10)
	arg2 := NewUintClosure(gc, 20)

	partial := gc.NewClosure(ClosureNull)
	require.NoError(t, ev.apply(partial, fn, arg1))
	assert.Equal(t, ClosureConstr, partial.Tag)
	assert.Equal(t, 1, partial.WantArity)
	require.Len(t, partial.Fields, 1)
	assert.Equal(t, arg1, partial.Fields[0])

	saturated := gc.NewClosure(ClosureNull)
	require.NoError(t, ev.apply(saturated, partial, arg2))
	assert.Equal(t, ClosureConstr, saturated.Tag)
	assert.Equal(t, 0, saturated.WantArity)
	require.Len(t, saturated.Fields, 2)
	assert.Equal(t, arg1, saturated.Fields[0])
	assert.Equal(t, arg2, saturated.Fields[1])
}

func TestApply_SaturatedConstructorRejectsFurtherArguments(t *testing.T) {
	gc := NewGC(nil)
	ev := NewEvaluator(gc)

	fn := NewConstrFunc(gc, 0, 0)
	self := gc.NewClosure(ClosureNull)
	err := ev.apply(self, fn, NewUintClosure(gc, 1))
	assert.Error(t, err)
}

func TestReduce_UnrecognizedClosureTagIsFatal(t *testing.T) {
	gc := NewGC(nil)
	ev := NewEvaluator(gc)
	c := gc.NewClosure(ClosureNull)
	err := ev.Reduce(c)
	assert.Error(t, err)
}
