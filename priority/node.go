package priority

// node is one key slot of a Map. Slots are kept on an intrusive doubly
// linked list (head = oldest insertion, tail = newest) so Keys, Values and
// ForEach follow insertion order without an extra index.
type node[K comparable, V any] struct {
	key K
	val Value[V]

	prev *node[K, V]
	next *node[K, V]
}

// pushBack appends n at the tail.
func (m *Map[K, V]) pushBack(n *node[K, V]) {
	n.prev = m.tail
	n.next = nil
	if m.tail != nil {
		m.tail.next = n
	} else {
		m.head = n
	}
	m.tail = n
}

// unlink detaches n from the list.
func (m *Map[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		m.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		m.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
