package world

import (
	"fmt"

	"github.com/sarchlab/actornet/sim"
)

type runJob struct {
	id       sim.ActorID
	computer sim.Computer
	edges    []sim.EdgeID
	incoming sim.Queue
}

type runResult struct {
	id       sim.ActorID
	outgoing sim.Queue
	err      error
}

type route struct {
	to  sim.ActorID
	msg sim.Message
}

// An engine decides how the run and deliver phases use goroutines. The
// world does everything that touches the topology or fires hooks; engines
// only execute computers and append to incoming queues.
type engine interface {
	// run executes the jobs and returns one result per job, in job order.
	// before and after are called from the calling goroutine.
	run(jobs []runJob, before func(runJob), after func(runResult)) []runResult

	// deliver appends the routed messages to the incoming queues. routes
	// holds one list per sender, in the order the sender produced them.
	deliver(slots []*slot, routes [][]route)

	parallel() bool
}

func execute(job runJob) (res runResult) {
	res.id = job.id

	defer func() {
		if r := recover(); r != nil {
			res.outgoing = nil
			res.err = fmt.Errorf("computer panicked: %v", r)
		}
	}()

	res.outgoing, res.err = job.computer.Run(job.edges, job.incoming)
	if res.err != nil {
		res.outgoing = nil
	}

	return res
}
