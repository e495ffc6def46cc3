package nanohs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEnv_SelectsInOrder(t *testing.T) {
	gc := NewGC(nil)
	a := gc.NewClosure(ClosurePrim)
	b := gc.NewClosure(ClosurePrim)
	c := gc.NewClosure(ClosurePrim)

	out := MaskEnv(Mask{true, false, true}, []*Closure{a, b, c})
	assert.Equal(t, []*Closure{a, c}, out)
}

func TestMaskConcatEnv_SpansBothHalves(t *testing.T) {
	gc := NewGC(nil)
	a := gc.NewClosure(ClosurePrim)
	b := gc.NewClosure(ClosurePrim)
	c := gc.NewClosure(ClosurePrim)
	d := gc.NewClosure(ClosurePrim)

	out := MaskConcatEnv(Mask{false, true, true, false}, []*Closure{a, b}, []*Closure{c, d})
	assert.Equal(t, []*Closure{b, c}, out)
}

func TestExtendEnv_AppendsWithoutMutatingOriginal(t *testing.T) {
	gc := NewGC(nil)
	a := gc.NewClosure(ClosurePrim)
	b := gc.NewClosure(ClosurePrim)

	env := []*Closure{a}
	out := ExtendEnv(env, b)

	assert.Equal(t, []*Closure{a}, env, "ExtendEnv must not mutate its input")
	assert.Equal(t, []*Closure{a, b}, out)
}

func TestCopyInto_SharesElementsButNotSlices(t *testing.T) {
	gc := NewGC(nil)
	field := gc.NewClosure(ClosurePrim)

	src := gc.NewClosure(ClosureConstr)
	src.Variant = 3
	src.Fields = []*Closure{field}

	dest := gc.NewClosure(ClosureThunk)
	CopyInto(dest, src)

	assert.Equal(t, ClosureConstr, dest.Tag)
	assert.EqualValues(t, 3, dest.Variant)
	assert.Equal(t, src.Fields[0], dest.Fields[0], "element pointers are shared")

	dest.Fields[0] = gc.NewClosure(ClosurePrim)
	assert.NotEqual(t, src.Fields[0], dest.Fields[0], "the slice header itself is not shared")
}

func TestErase_ClearsPayload(t *testing.T) {
	gc := NewGC(nil)
	c := gc.NewClosure(ClosureThunk)
	c.Env = []*Closure{gc.NewClosure(ClosurePrim)}
	c.Entry = gc.NewEntry(EntryPrim)

	Erase(c)

	assert.Nil(t, c.Env)
	assert.Nil(t, c.Entry)
	assert.Nil(t, c.PrimData)
	assert.Nil(t, c.Fields)
}
