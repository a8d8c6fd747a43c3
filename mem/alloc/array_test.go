package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/slabkit/internal/testutil"
	"github.com/joshuapare/slabkit/mem/pool"
)

// indexed returns an allocator whose elements are constructed as their index.
func indexed(scale Scale, opts ...Option) *Arrays[int] {
	return NewArrays(scale, ElemHooks[int]{
		Init: func(e *int, idx int) { *e = idx },
	}, opts...)
}

func dataOf[T any](arr []T) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(arr)))
}

func Test_Arrays_New(t *testing.T) {
	tests := []struct {
		name    string
		scale   Scale
		n       int
		wantCap int
	}{
		{"linear exact step", Linear(4), 4, 8},
		{"linear below step", Linear(4), 3, 4},
		{"log2 power of two", Log2(), 8, 8},
		{"log2 between powers", Log2(), 5, 8},
		{"log2 one", Log2(), 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arrays := indexed(tt.scale)
			arr := arrays.New(tt.n)
			require.Len(t, arr, tt.n)
			require.Equal(t, tt.wantCap, cap(arr))
			for i, v := range arr {
				require.Equal(t, i, v)
			}
		})
	}
}

func Test_Arrays_NewZeroIsNil(t *testing.T) {
	arrays := indexed(Log2())
	assert.Nil(t, arrays.New(0))
	assert.Zero(t, arrays.Live())
	arrays.Free(nil)
}

func Test_Arrays_FreeListReuse(t *testing.T) {
	arrays := indexed(Log2())

	a := arrays.New(5)
	addr := dataOf(a)
	arrays.Free(a)

	// 7 files into the same bucket as 5 (capacity 8).
	b := arrays.New(7)
	assert.Equal(t, addr, dataOf(b))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, b)

	// A different bucket never sees the block.
	arrays.Free(b)
	c := arrays.New(9)
	assert.NotEqual(t, addr, dataOf(c))
	assert.Equal(t, 1, arrays.Stats().Cached)
}

func Test_Arrays_FreeRunsFini(t *testing.T) {
	var finis int
	arrays := NewArrays(Linear(2), ElemHooks[int]{Fini: func(*int) { finis++ }})
	arr := arrays.New(3)
	arrays.Free(arr)
	assert.Equal(t, 3, finis)

	one := arrays.New(1)
	arrays.Free(one)
	testutil.RequireViolation(t, ErrDoubleFree, func() { arrays.Free(one) })
}

func Test_Arrays_DoubleFreeWithOthersLive(t *testing.T) {
	var finis int
	arrays := NewArrays(Log2(), ElemHooks[int]{Fini: func(*int) { finis++ }})
	a := arrays.New(2)
	b := arrays.New(2)

	arrays.Free(a)
	require.Equal(t, 2, finis)
	testutil.RequireViolation(t, ErrDoubleFree, func() { arrays.Free(a) })
	assert.Equal(t, 2, finis, "rejected free does not destruct")
	testutil.RequireViolation(t, ErrDoubleFree, func() { arrays.Resize(a, 4) })

	x := arrays.New(2)
	y := arrays.New(2)
	assert.NotEqual(t, dataOf(x), dataOf(y), "a block is never handed out twice")

	arrays.Free(b)
	arrays.Free(x)
	arrays.Free(y)
	assert.Zero(t, arrays.Live())
}

func Test_Arrays_ForeignBlockPanics(t *testing.T) {
	arrays := indexed(Log2())
	testutil.RequireViolation(t, ErrSizeMismatch, func() {
		arrays.Free(make([]int, 3))
	})
	arr := arrays.New(8)
	testutil.RequireViolation(t, ErrSizeMismatch, func() {
		arrays.Resize(arr[1:], 2)
	})
}

func Test_Arrays_ResizeGrowPreservesPrefix(t *testing.T) {
	arrays := NewArrays(Log2(), ElemHooks[int]{
		Init: func(e *int, idx int) { *e = 100 + idx },
	})
	arr := arrays.New(3)
	arr[0], arr[1], arr[2] = 7, 8, 9
	old := dataOf(arr)

	arr = arrays.Resize(arr, 4)
	assert.Equal(t, old, dataOf(arr), "growth within capacity stays in place")
	assert.Equal(t, []int{7, 8, 9, 103}, arr)

	arr = arrays.Resize(arr, 6)
	assert.NotEqual(t, old, dataOf(arr), "growth past capacity relocates")
	assert.Equal(t, 8, cap(arr))
	assert.Equal(t, []int{7, 8, 9, 103, 104, 105}, arr)
	assert.Equal(t, 1, arrays.Live())
	assert.Equal(t, 1, arrays.Stats().Cached, "old block was recycled")
}

func Test_Arrays_ResizeShrinkKeepsBlock(t *testing.T) {
	var finis []int
	arrays := NewArrays(Log2(), ElemHooks[int]{
		Init: func(e *int, idx int) { *e = idx },
		Fini: func(e *int) { finis = append(finis, *e) },
	})
	arr := arrays.New(16)
	old := dataOf(arr)

	arr = arrays.Resize(arr, 2)
	assert.Equal(t, old, dataOf(arr))
	assert.Equal(t, 16, cap(arr), "shrinking to a smaller bucket keeps the block")
	assert.Len(t, finis, 14)
	assert.Equal(t, 2, finis[0])

	arr = arrays.Resize(arr, 5)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, arr, "regrown slots are constructed")

	arr = arrays.Shrink(arr)
	assert.Equal(t, 8, cap(arr))
	assert.NotEqual(t, old, dataOf(arr))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, arr)
}

func Test_Arrays_ResizeToZeroFrees(t *testing.T) {
	arrays := indexed(Linear(4))
	arr := arrays.New(3)
	arr = arrays.Resize(arr, 0)
	assert.Nil(t, arr)
	assert.Zero(t, arrays.Live())

	arr = arrays.Resize(nil, 2)
	assert.Equal(t, []int{0, 1}, arr)
	assert.Equal(t, 1, arrays.Live())
}

func Test_Arrays_AdjustOnRelocation(t *testing.T) {
	type node struct {
		Self *int
		V    int
	}
	var adjusted int
	arrays := NewArrays(Log2(), ElemHooks[node]{
		Init: func(e *node, idx int) { e.V = idx; e.Self = &e.V },
		Adjust: func(dst, src *node) {
			adjusted++
			dst.Self = &dst.V
		},
	})
	arr := arrays.New(2)
	arr = arrays.Resize(arr, 3)
	require.Equal(t, 2, adjusted, "only moved elements are adjusted")
	for i := range arr {
		assert.Same(t, &arr[i].V, arr[i].Self)
	}
}

func Test_Arrays_EnsureSize(t *testing.T) {
	arrays := indexed(Log2())
	arr := arrays.New(4)

	same := arrays.EnsureSize(arr, 3, 10)
	assert.Len(t, same, 4)

	grown := arrays.EnsureSize(arr, 5, 2)
	assert.Len(t, grown, 7)
}

func Test_Arrays_Grow(t *testing.T) {
	arrays := indexed(Linear(3))

	var arr []int
	tail := arrays.Grow(&arr, 2)
	assert.Equal(t, []int{0, 1}, tail)
	assert.Equal(t, []int{0, 1}, arr)

	tail = arrays.Grow(&arr, 3)
	assert.Equal(t, []int{2, 3, 4}, tail)
	assert.Len(t, arr, 5)
	tail[0] = 42
	assert.Equal(t, 42, arr[2], "tail aliases the array")
}

func Test_Arrays_Copy(t *testing.T) {
	var clones int
	arrays := NewArrays(Log2(), ElemHooks[int]{Clone: func(e *int) { clones++; *e *= 10 }})
	src := arrays.New(3)
	src[0], src[1], src[2] = 1, 2, 3

	dst := arrays.Copy(src)
	assert.NotEqual(t, dataOf(src), dataOf(dst))
	assert.Equal(t, []int{10, 20, 30}, dst)
	assert.Equal(t, []int{1, 2, 3}, src)
	assert.Equal(t, 3, clones)
	assert.Nil(t, arrays.Copy(nil))
}

func Test_Arrays_Append(t *testing.T) {
	arrays := indexed(Log2())
	dest := arrays.New(2)
	src := []int{7, 8, 9}

	tail := arrays.Append(&dest, src)
	assert.Equal(t, []int{7, 8, 9}, tail)
	assert.Equal(t, []int{0, 1, 7, 8, 9}, dest)

	var empty []int
	arrays.Append(&empty, src)
	assert.Equal(t, src, empty)
	assert.Nil(t, arrays.Append(&dest, nil))
}

func Test_Arrays_SelfAppend(t *testing.T) {
	arrays := indexed(Log2())
	dest := arrays.New(4)
	for i := range dest {
		dest[i] = i + 1
	}
	old := dataOf(dest)

	arrays.Append(&dest, dest)
	assert.NotEqual(t, old, dataOf(dest), "self-append past capacity relocates")
	assert.Equal(t, []int{1, 2, 3, 4, 1, 2, 3, 4}, dest)

	// In place: capacity 4 already covers a 1-element self-append.
	small := arrays.Resize(arrays.New(3), 1)
	small[0] = 5
	before := dataOf(small)
	arrays.Append(&small, small)
	assert.Equal(t, []int{5, 5}, small)
	assert.Equal(t, before, dataOf(small))
}

func Test_Arrays_AppendClones(t *testing.T) {
	var clones int
	arrays := NewArrays(Linear(4), ElemHooks[int]{Clone: func(*int) { clones++ }})
	dest := arrays.New(1)
	arrays.Append(&dest, []int{1, 2})
	assert.Equal(t, 2, clones)
}

func Test_Arrays_Concat(t *testing.T) {
	arrays := indexed(Linear(4))
	x := arrays.New(2)
	y := arrays.New(3)

	xy := arrays.Concat(x, y)
	assert.Equal(t, []int{0, 1, 0, 1, 2}, xy)
	assert.Equal(t, 8, cap(xy))

	onlyY := arrays.Concat(nil, y)
	assert.Equal(t, y, onlyY)
	assert.NotEqual(t, dataOf(y), dataOf(onlyY), "empty operand still yields a copy")

	onlyX := arrays.Concat(x, nil)
	assert.Equal(t, x, onlyX)
	assert.Nil(t, arrays.Concat(nil, nil))
	assert.Equal(t, 5, arrays.Live())
}

func Test_Arrays_Unshare(t *testing.T) {
	arrays := NewArrays(Log2(), ElemHooks[int]{Clone: func(e *int) { *e = -*e }})
	arr := arrays.New(2)
	arr[0], arr[1] = 1, 2
	arrays.Unshare(arr)
	assert.Equal(t, []int{-1, -2}, arr)
}

func Test_Arrays_LargeBlocksAreNotRecycled(t *testing.T) {
	arrays := indexed(Log2(), WithMaxBuckets(3))
	big := arrays.New(5) // order 3
	assert.Equal(t, 8, cap(big))
	arrays.Free(big)

	st := arrays.Stats()
	assert.EqualValues(t, 1, st.Large)
	assert.Zero(t, st.Cached)
	assert.Zero(t, st.Live)
}

func Test_Arrays_BucketCounters(t *testing.T) {
	arrays := indexed(Linear(4))
	arrays.New(1)
	arrays.New(2)
	arrays.New(5)

	st := arrays.Stats()
	assert.EqualValues(t, 2, st.Buckets[0])
	assert.EqualValues(t, 1, st.Buckets[1])
	assert.EqualValues(t, 3, st.Allocs)
	assert.Equal(t, 3, st.Live)
}

func Test_Arrays_Trim(t *testing.T) {
	arrays := indexed(Log2())
	arrays.Free(arrays.New(2))
	arrays.Free(arrays.New(4))
	require.Equal(t, 2, arrays.Stats().Cached)
	arrays.Trim()
	assert.Zero(t, arrays.Stats().Cached)
}

func Test_Arrays_PoolBacked(t *testing.T) {
	p := pool.New(testutil.AlignedBuffer(4 * 8))
	arrays := indexed(Log2(), WithPool(p))

	a := arrays.New(2) // 16 bytes
	b := arrays.New(2) // 16 bytes
	require.Zero(t, p.Remaining())
	require.EqualValues(t, 2, arrays.Stats().FromPool)

	c := arrays.New(1) // pool exhausted
	_, inPool := p.Offset(unsafe.Pointer(unsafe.SliceData(c)))
	assert.False(t, inPool)

	arrays.Free(a)
	assert.Equal(t, 32, p.Cursor(), "a is not adjacent to the cursor")
	arrays.Free(b)
	assert.Equal(t, 16, p.Cursor())

	d := arrays.New(2)
	assert.Equal(t, dataOf(a), dataOf(d), "free list is consulted before the pool")
	assert.Equal(t, []int{0, 1}, d)
}

func BenchmarkArrays_GrowFree(b *testing.B) {
	arrays := indexed(Log2())
	b.ReportAllocs()
	for b.Loop() {
		var arr []int
		for range 64 {
			arrays.Grow(&arr, 1)
		}
		arrays.Free(arr)
	}
}
