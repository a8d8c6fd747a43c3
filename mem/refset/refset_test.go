package refset

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/slabkit/mem/alloc"
)

type node struct {
	Name string
}

func setup(t *testing.T, opts ...Option) (*alloc.Refs[node], *Kind[node]) {
	t.Helper()
	refs := alloc.NewRefs(alloc.Hooks[node]{})
	return refs, NewKind(refs, opts...)
}

func TestRefSet_GrowthSequence(t *testing.T) {
	refs, k := setup(t, WithReserve(2))
	s := k.New(1)
	obj := refs.New(nil)
	obj2 := refs.New(nil)
	obj3 := refs.New(nil)

	first := unsafe.SliceData(s.elts)
	s.Include(obj)
	assert.Same(t, first, unsafe.SliceData(s.elts), "a free slot needs no growth")
	assert.Equal(t, 1, s.Cap())

	s.Include(obj2)
	grown := unsafe.SliceData(s.elts)
	assert.NotSame(t, first, grown, "growth relocates")
	assert.Equal(t, 1+1+2, s.Cap())

	s.Include(obj3)
	assert.Same(t, grown, unsafe.SliceData(s.elts), "the reserve covers the third member")
	assert.Equal(t, 3, s.Count())
}

func TestRefSet_IncludeIsIdempotent(t *testing.T) {
	refs, k := setup(t)
	s := k.New(2)
	obj := refs.New(nil)

	s.Include(obj)
	s.Include(obj)
	s.Include(nil)
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 2, obj.Refs(), "second include takes no reference")
	assert.True(t, s.Has(obj))
	assert.False(t, s.Has(nil))
}

func TestRefSet_IdentityNotValue(t *testing.T) {
	refs, k := setup(t)
	s := k.New(0)
	a := refs.New(func(n *node) { n.Name = "same" })
	b := refs.New(func(n *node) { n.Name = "same" })

	s.IncludeAll(a, b, a)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 1, k.Arrays().Live())
}

func TestRefSet_ExcludeLeavesReusableHole(t *testing.T) {
	refs, k := setup(t)
	s := k.New(2)
	a, b, c := refs.New(nil), refs.New(nil), refs.New(nil)
	s.IncludeAll(a, b)

	assert.True(t, s.Exclude(a))
	assert.False(t, s.Exclude(a))
	assert.False(t, s.Exclude(nil))
	assert.Equal(t, 1, a.Refs())
	assert.Nil(t, s.elts[0])

	s.Include(c)
	assert.Same(t, c, s.elts[0], "hole is filled before growing")
	assert.Equal(t, 2, s.Cap())
}

func TestRefSet_FilterAndForEach(t *testing.T) {
	refs, k := setup(t)
	s := k.New(4)
	keep := refs.New(func(n *node) { n.Name = "keep" })
	drop := refs.New(func(n *node) { n.Name = "drop" })
	s.IncludeAll(keep, drop)

	s.Filter(func(obj *alloc.Ref[node]) bool { return obj.Value.Name == "keep" })
	assert.True(t, s.Has(keep))
	assert.False(t, s.Has(drop))
	assert.Equal(t, 1, drop.Refs())

	s.Include(drop)
	var visited []string
	assert.True(t, s.ForEach(func(obj *alloc.Ref[node]) bool {
		visited = append(visited, obj.Value.Name)
		return true
	}))
	assert.Equal(t, []string{"keep", "drop"}, visited)

	calls := 0
	assert.False(t, s.ForEach(func(*alloc.Ref[node]) bool {
		calls++
		return false
	}))
	assert.Equal(t, 1, calls, "ForEach stops at the first false")
}

func TestRefSet_ClearKeepsCapacity(t *testing.T) {
	refs, k := setup(t)
	s := k.New(4)
	a, b := refs.New(nil), refs.New(nil)
	s.IncludeAll(a, b)

	s.Clear()
	assert.Zero(t, s.Count())
	assert.Equal(t, 4, s.Cap())
	assert.Equal(t, 1, a.Refs())
	assert.Equal(t, 1, b.Refs())
}

func TestRefSet_CopyAndFree(t *testing.T) {
	refs, k := setup(t)
	s := k.New(2)
	a := refs.New(nil)
	s.Include(a)
	refs.Free(a)
	require.Equal(t, 1, a.Refs(), "the set keeps the record alive")

	c := s.Copy()
	assert.True(t, c.Has(a))
	assert.Equal(t, 2, a.Refs())

	s.Free()
	c.Free()
	assert.Zero(t, refs.Live())
	assert.Zero(t, k.Arrays().Live())
}

func TestRefSet_IncludeOnEmptySet(t *testing.T) {
	refs, k := setup(t, WithReserve(3))
	s := k.New(0)
	s.Include(refs.New(nil))
	assert.Equal(t, 1+3, s.Cap())
}
