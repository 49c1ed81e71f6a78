package sim

// A Queue is a FIFO of messages. The zero value is an empty queue ready to
// use. Insertion order is preserved by every operation.
type Queue []Message

// Push appends messages to the tail of the queue.
func (q *Queue) Push(msgs ...Message) {
	*q = append(*q, msgs...)
}

// Len returns the number of messages in the queue.
func (q Queue) Len() int {
	return len(q)
}

// Peek returns the message at the head of the queue without removing it.
func (q Queue) Peek() (Message, bool) {
	if len(q) == 0 {
		return Message{}, false
	}

	return q[0], true
}

// Pop removes and returns the message at the head of the queue.
func (q *Queue) Pop() (Message, bool) {
	if len(*q) == 0 {
		return Message{}, false
	}

	msg := (*q)[0]
	*q = (*q)[1:]

	return msg, true
}

// Clone returns a copy that shares no storage with q.
func (q Queue) Clone() Queue {
	if len(q) == 0 {
		return nil
	}

	return append(Queue(nil), q...)
}

// Drain returns all the messages and leaves the queue empty.
func (q *Queue) Drain() Queue {
	msgs := *q
	*q = nil

	return msgs
}

// Clear removes all the messages.
func (q *Queue) Clear() {
	*q = nil
}

// At returns the i-th message from the head. It panics if i is out of range.
func (q Queue) At(i int) Message {
	return q[i]
}
