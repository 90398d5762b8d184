package meshgraph

// OwnerIndex maps interface addresses to the AL address of the device that
// declared them.
//
// Assignment is last-writer-wins. When an interface is re-declared by a
// different device the new owner replaces the old one and the overwrite is
// counted, so duplicated interface addresses in the source data stay visible
// without changing the graph.
type OwnerIndex struct {
	owners     map[string]string
	collisions []Collision
}

// Collision records one ownership overwrite.
type Collision struct {
	Interface string `json:"interface"`
	Previous  string `json:"previous"`
	Owner     string `json:"owner"`
}

// NewOwnerIndex returns an empty index.
func NewOwnerIndex() *OwnerIndex {
	return &OwnerIndex{owners: make(map[string]string)}
}

// Assign sets the owner of iface to device and reports whether a different
// device owned it before.
func (o *OwnerIndex) Assign(iface, device string) bool {
	prev, ok := o.owners[iface]
	o.owners[iface] = device
	if ok && prev != device {
		o.collisions = append(o.collisions, Collision{Interface: iface, Previous: prev, Owner: device})
		return true
	}
	return false
}

// Owner returns the device owning iface.
func (o *OwnerIndex) Owner(iface string) (string, bool) {
	dev, ok := o.owners[iface]
	return dev, ok
}

// Resolve returns the owners of both ends of k; ok is false if either end
// has no owner.
func (o *OwnerIndex) Resolve(k PairKey) (from, to string, ok bool) {
	from, okA := o.owners[k.A]
	to, okB := o.owners[k.B]
	return from, to, okA && okB
}

// Len returns the number of indexed interfaces.
func (o *OwnerIndex) Len() int { return len(o.owners) }

// Collisions returns the recorded ownership overwrites in walk order.
func (o *OwnerIndex) Collisions() []Collision {
	out := make([]Collision, len(o.collisions))
	copy(out, o.collisions)
	return out
}
