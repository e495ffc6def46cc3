package nanohs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterner_Idempotent(t *testing.T) {
	in := NewInterner()

	a := in.Intern("foo")
	b := in.Intern("foo")
	c := in.Intern("bar")

	assert.Equal(t, a, b, "interning the same string twice should yield the same Sym")
	assert.NotEqual(t, a, c)
	assert.Equal(t, "foo", a.String())
	assert.Equal(t, "bar", c.String())
}

func TestInterner_DistinctPools(t *testing.T) {
	in1 := NewInterner()
	in2 := NewInterner()

	a := in1.Intern("foo")
	b := in2.Intern("foo")

	assert.True(t, a != b, "Syms from different interners must not compare equal even for the same text")
}

func TestSym_ZeroValue(t *testing.T) {
	var s Sym
	assert.Equal(t, "", s.String())
}
