package world

import (
	"sync"

	"github.com/sarchlab/actornet/sim"
	"golang.org/x/sync/errgroup"
)

// parallelEngine runs computers concurrently and delivers messages through
// one mailbox channel per destination. Messages from one sender reach a
// destination in the order they were produced; messages from different
// senders may interleave.
type parallelEngine struct {
	workers    int
	mailboxCap int
}

func (e *parallelEngine) parallel() bool {
	return true
}

func (e *parallelEngine) run(
	jobs []runJob,
	before func(runJob),
	after func(runResult),
) []runResult {
	for _, job := range jobs {
		before(job)
	}

	results := make([]runResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(e.workers)

	for i, job := range jobs {
		g.Go(func() error {
			results[i] = execute(job)
			return nil
		})
	}

	// Failures are carried in the results, so Wait never reports one.
	_ = g.Wait()

	for _, res := range results {
		after(res)
	}

	return results
}

func (e *parallelEngine) deliver(slots []*slot, routes [][]route) {
	mailboxes := make(map[sim.ActorID]chan sim.Message)

	for _, senderRoutes := range routes {
		for _, r := range senderRoutes {
			if _, found := mailboxes[r.to]; !found {
				mailboxes[r.to] = make(chan sim.Message, e.mailboxCap)
			}
		}
	}

	var consumers sync.WaitGroup
	for to, mailbox := range mailboxes {
		consumers.Add(1)

		go func(s *slot, mailbox <-chan sim.Message) {
			defer consumers.Done()

			for msg := range mailbox {
				s.incoming.Push(msg)
			}
		}(slots[to], mailbox)
	}

	var producers sync.WaitGroup
	for _, senderRoutes := range routes {
		producers.Add(1)

		go func(senderRoutes []route) {
			defer producers.Done()

			for _, r := range senderRoutes {
				mailboxes[r.to] <- r.msg
			}
		}(senderRoutes)
	}

	producers.Wait()

	for _, mailbox := range mailboxes {
		close(mailbox)
	}

	consumers.Wait()
}
