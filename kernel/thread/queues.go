package thread

import "github.com/dijkstracula/pintos-go/internal/dlist"

// listOfThreads is the priority-ordered intrusive list shape every waiter
// queue in this package uses (a semaphore's waiters, a lock's semaphore's
// waiters, the PS ready queue): highest CurrentPriority first, FIFO among
// ties.
type listOfThreads = dlist.List[*Thread]

func byCurrentPriorityDesc(a, b *Thread) bool {
	if a.CurrentPriority != b.CurrentPriority {
		return a.CurrentPriority > b.CurrentPriority
	}
	return a.Arrival < b.Arrival
}

func newListOfThreads() *listOfThreads {
	return dlist.New(byCurrentPriorityDesc)
}
