package main

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/joshuapare/slabkit/mem/alloc"
	"github.com/joshuapare/slabkit/mem/pool"
	"github.com/joshuapare/slabkit/mem/queue"
	"github.com/joshuapare/slabkit/mem/refset"
	"github.com/joshuapare/slabkit/mem/taglist"
)

// scenario is one self-test. run returns a short detail line on success.
type scenario struct {
	name string
	desc string
	run  func(log *slog.Logger) (string, error)
}

var scenarios = []scenario{
	{"object-reuse", "freed object is handed out again", runObjectReuse},
	{"pool-give-back", "only the adjacent block returns to the pool", runPoolGiveBack},
	{"taglist-tombstone", "deleted slot is reused by the next add", runTaglistTombstone},
	{"queue-growth", "full queue relocates and stays FIFO", runQueueGrowth},
	{"refset-growth", "set grows once and the reserve absorbs the next include", runRefsetGrowth},
	{"array-self-append", "appending an array to itself survives relocation", runSelfAppend},
}

type simpleType struct {
	Tag   uint32
	Value uint32
}

func runObjectReuse(log *slog.Logger) (string, error) {
	objs := alloc.NewObjects(alloc.Hooks[simpleType]{}, alloc.WithLogger(log))
	before := objs.Live()

	a := objs.New(func(s *simpleType) { s.Tag = 'A' })
	objs.Free(a)
	b := objs.New(func(s *simpleType) { s.Tag = 'B' })
	if a != b {
		return "", fmt.Errorf("second allocation at %p, want %p", b, a)
	}
	objs.Free(b)
	if objs.Live() != before {
		return "", fmt.Errorf("live objects %d, want %d", objs.Live(), before)
	}
	return fmt.Sprintf("address %p reused", a), nil
}

func runPoolGiveBack(log *slog.Logger) (string, error) {
	size := int(unsafe.Sizeof(simpleType{}))
	words := make([]uint64, (2*size+7)/8)
	p := pool.New(unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), 2*size))
	objs := alloc.NewObjects(alloc.Hooks[simpleType]{}, alloc.WithPool(p), alloc.WithLogger(log))

	st := objs.New(nil)
	st1 := objs.New(nil)
	if objs.Stats().FromPool != 2 {
		return "", fmt.Errorf("pool served %d objects, want 2", objs.Stats().FromPool)
	}
	cursor := p.Cursor()

	objs.Free(st)
	if p.Cursor() != cursor {
		return "", fmt.Errorf("cursor moved to %d freeing a non-adjacent block", p.Cursor())
	}
	if objs.Stats().Cached != 1 {
		return "", errors.New("non-adjacent block did not reach the free list")
	}
	objs.Free(st1)
	if p.Cursor() != cursor-size {
		return "", fmt.Errorf("cursor %d, want %d", p.Cursor(), cursor-size)
	}
	return fmt.Sprintf("cursor %d -> %d", cursor, p.Cursor()), nil
}

func runTaglistTombstone(log *slog.Logger) (string, error) {
	kind := taglist.NewKind(alloc.Hooks[int]{}, taglist.WithAllocOptions(alloc.WithLogger(log)))
	l := kind.New(2)
	defer l.Free()

	v := l.Add(5)
	*v = 100
	l.Delete(5, false)
	w := l.Add(7)
	if v != w {
		return "", fmt.Errorf("add returned slot %p, want tombstone %p", w, v)
	}
	if *w != 0 {
		return "", fmt.Errorf("reused slot holds %d, want 0", *w)
	}
	return "tombstone reused", nil
}

func runQueueGrowth(log *slog.Logger) (string, error) {
	const reserve = 2
	arrays := alloc.NewArrays(alloc.Log2(), alloc.ElemHooks[int]{}, alloc.WithLogger(log))
	q := queue.New(arrays, 1, queue.WithReserve(reserve))
	defer q.Free()

	q.Enqueue(1)
	q.Enqueue(2)
	if q.Cap() != 2+reserve {
		return "", fmt.Errorf("capacity %d, want %d", q.Cap(), 2+reserve)
	}
	if a, b := q.Dequeue(), q.Dequeue(); a != 1 || b != 2 {
		return "", fmt.Errorf("dequeued %d, %d; want 1, 2", a, b)
	}
	return fmt.Sprintf("capacity 1 -> %d", 2+reserve), nil
}

func runRefsetGrowth(log *slog.Logger) (string, error) {
	refs := alloc.NewRefs(alloc.Hooks[simpleType]{}, alloc.WithLogger(log))
	kind := refset.NewKind(refs, refset.WithReserve(1), refset.WithAllocOptions(alloc.WithLogger(log)))
	s := kind.New(1)

	objs := []*alloc.Ref[simpleType]{refs.New(nil), refs.New(nil), refs.New(nil)}
	caps := make([]int, 0, len(objs))
	for _, obj := range objs {
		s.Include(obj)
		caps = append(caps, s.Cap())
	}
	if caps[0] != 1 || caps[1] != 3 || caps[2] != 3 {
		return "", fmt.Errorf("capacities %v, want [1 3 3]", caps)
	}
	s.Free()
	for _, obj := range objs {
		refs.Free(obj)
	}
	if refs.Live() != 0 {
		return "", fmt.Errorf("%d records leaked", refs.Live())
	}
	return fmt.Sprintf("capacities %v", caps), nil
}

func runSelfAppend(log *slog.Logger) (string, error) {
	arrays := alloc.NewArrays(alloc.Log2(), alloc.ElemHooks[int]{
		Init: func(e *int, idx int) { *e = idx },
	}, alloc.WithLogger(log))
	arr := arrays.New(3)
	arrays.Append(&arr, arr)
	defer arrays.Free(arr)

	want := []int{0, 1, 2, 0, 1, 2}
	if len(arr) != len(want) {
		return "", fmt.Errorf("length %d, want %d", len(arr), len(want))
	}
	for i := range want {
		if arr[i] != want[i] {
			return "", fmt.Errorf("got %v, want %v", arr, want)
		}
	}
	return fmt.Sprintf("%v", arr), nil
}
