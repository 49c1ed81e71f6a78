package world

// serialEngine runs every phase on the calling goroutine. Computers run in
// ascending id order and every destination receives messages in the order
// the senders are visited.
type serialEngine struct{}

func (e *serialEngine) parallel() bool {
	return false
}

func (e *serialEngine) run(
	jobs []runJob,
	before func(runJob),
	after func(runResult),
) []runResult {
	results := make([]runResult, 0, len(jobs))

	for _, job := range jobs {
		before(job)
		res := execute(job)
		after(res)

		results = append(results, res)
	}

	return results
}

func (e *serialEngine) deliver(slots []*slot, routes [][]route) {
	for _, senderRoutes := range routes {
		for _, r := range senderRoutes {
			slots[r.to].incoming.Push(r.msg)
		}
	}
}
