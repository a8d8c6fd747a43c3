package alloc

// Ref is a reference-counted record. The count is managed by the Refs
// allocator that created it; Value is free for the caller to use.
type Ref[T any] struct {
	refs  int32
	Value T
}

// Refs returns the current reference count.
func (r *Ref[T]) Refs() int {
	if r == nil {
		return 0
	}
	return int(r.refs)
}

// Refs is a reference-counting allocator for T.
//
// Copy always produces a distinct record with a count of one, even when the
// source is shared; this is what makes MaybeCopy a copy-on-write primitive.
type Refs[T any] struct {
	objs *Objects[Ref[T]]
}

// NewRefs creates a reference-counting allocator. The hooks act on Value.
func NewRefs[T any](hooks Hooks[T], opts ...Option) *Refs[T] {
	return &Refs[T]{objs: NewObjects(liftHooks(hooks), opts...)}
}

func liftHooks[T any](h Hooks[T]) Hooks[Ref[T]] {
	var out Hooks[Ref[T]]
	if h.Init != nil {
		out.Init = func(r *Ref[T]) { h.Init(&r.Value) }
	}
	if h.Clone != nil {
		out.Clone = func(r *Ref[T]) { h.Clone(&r.Value) }
	}
	if h.Fini != nil {
		out.Fini = func(r *Ref[T]) { h.Fini(&r.Value) }
	}
	return out
}

// New returns a constructed record with a reference count of one.
func (a *Refs[T]) New(init func(v *T)) *Ref[T] {
	return a.objs.New(func(r *Ref[T]) {
		r.refs = 1
		if init != nil {
			init(&r.Value)
		}
	})
}

// Use adds a reference to r and returns it. Use of nil is nil.
func (a *Refs[T]) Use(r *Ref[T]) *Ref[T] {
	if r != nil {
		r.refs++
	}
	return r
}

// Free drops one reference. The record is destructed and recycled when the
// last reference goes. Freeing nil is a no-op.
func (a *Refs[T]) Free(r *Ref[T]) {
	if r == nil {
		return
	}
	if r.refs <= 0 {
		violation(ErrRefUnderflow, "free ref")
	}
	r.refs--
	if r.refs > 0 {
		return
	}
	a.objs.Free(r)
}

// Copy returns a fresh record holding a clone of r's value, with a count of
// one regardless of r's count.
func (a *Refs[T]) Copy(r *Ref[T]) *Ref[T] {
	c := a.objs.Copy(r)
	if c != nil {
		c.refs = 1
	}
	return c
}

// Assign stores val in *loc, taking a reference on val and dropping the one
// held by the previous occupant. Assigning the current occupant is safe.
func (a *Refs[T]) Assign(loc **Ref[T], val *Ref[T]) {
	if loc == nil {
		violation(ErrNilLocation, "assign")
	}
	a.Use(val)
	a.Free(*loc)
	*loc = val
}

// Move stores val in *loc and transfers the caller's reference to the slot.
func (a *Refs[T]) Move(loc **Ref[T], val *Ref[T]) {
	if loc == nil {
		violation(ErrNilLocation, "move")
	}
	a.Assign(loc, val)
	a.Free(val)
}

// MaybeCopy returns a record the caller owns exclusively: r itself when it
// holds the only reference, else a copy, with the caller's reference on r
// released.
func (a *Refs[T]) MaybeCopy(r *Ref[T]) *Ref[T] {
	if r == nil || r.refs == 1 {
		return r
	}
	c := a.Copy(r)
	a.Free(r)
	return c
}

// ElemHooks returns array hooks for slots that each own one reference from a:
// cloning a slot takes a reference and destructing it releases one.
func (a *Refs[T]) ElemHooks() ElemHooks[*Ref[T]] {
	return ElemHooks[*Ref[T]]{
		Clone: func(p **Ref[T]) { a.Use(*p) },
		Fini: func(p **Ref[T]) {
			a.Free(*p)
			*p = nil
		},
	}
}

// Preallocate seeds the free list with n contiguous records.
func (a *Refs[T]) Preallocate(n int) { a.objs.Preallocate(n) }

// Trim drops every cached free record.
func (a *Refs[T]) Trim() { a.objs.Trim() }

// Live returns the number of records with at least one reference.
func (a *Refs[T]) Live() int { return a.objs.Live() }

// Stats returns a snapshot of allocator counters.
func (a *Refs[T]) Stats() Stats { return a.objs.Stats() }
