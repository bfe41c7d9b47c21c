package value

import "sync"

// Object is a (class, members) pair. Members are insertion-ordered and
// guarded by a per-object read/write lock (spec §3 Object): reads are
// shared, mutations exclusive.
type Object struct {
	class   string
	members *Hash
	mu      sync.RWMutex
	deleted bool
}

// NewObject wraps a fresh object of the given class in a heap-backed
// Value. Destruction runs under the destructor callback: it marks the
// object deleted and releases its members, matching the "object is
// deleted exactly once" lifecycle rule.
func NewObject(class string) Value {
	o := &Object{class: class, members: &Hash{values: make(map[string]Value)}}
	return newHeap(KindObject, o, func(sink Sink) {
		o.mu.Lock()
		o.deleted = true
		members := o.members
		o.mu.Unlock()
		for _, k := range members.Keys() {
			v, _ := members.Get(k)
			v.Deref(sink)
		}
	})
}

func asObject(v Value) *Object {
	if v.kind != KindObject {
		return nil
	}
	o, _ := v.node.payload.(*Object)
	return o
}

// Class returns the object's class name.
func (o *Object) Class() string { return o.class }

// Deleted reports whether the object has already been destructed.
func (o *Object) Deleted() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.deleted
}

// RLock/RUnlock/Lock/Unlock expose the object's member guard directly
// to the lvalue engine, which acquires it as part of resolving a
// member-access lvalue.
func (o *Object) RLock()   { o.mu.RLock() }
func (o *Object) RUnlock() { o.mu.RUnlock() }
func (o *Object) Lock()    { o.mu.Lock() }
func (o *Object) Unlock()  { o.mu.Unlock() }

// GetMember reads a member under the read lock. Returns
// (Nothing, false) both when the member is absent and when the object
// has already been deleted; callers that must distinguish the two call
// Deleted() first.
func (o *Object) GetMember(name string) (Value, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.deleted {
		return Nothing, false
	}
	return o.members.Get(name)
}

// SetMember writes a member under the write lock.
func (o *Object) SetMember(name string, v Value) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.deleted {
		return
	}
	o.members.Set(name, v)
}

// MemberNames returns member keys in insertion order under the read
// lock.
func (o *Object) MemberNames() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.members.Keys()
}
