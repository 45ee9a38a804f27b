package thread

// donate raises l's holder's CurrentPriority to at least the calling
// (acquiring) thread's, then recurses through the holder's own
// WaitingLock so a chain of nested donations converges in one pass. After
// raising a donee's priority, every queue it might currently sit in is
// re-sorted so the change is reflected immediately: only one of
// WaitingLock/WaitingSema/WaitingCondVar is ever actually set at a time,
// but all three are checked, mirroring the defensive three-way check the
// donation walk this is modeled on performs.
//
// Must be called with the gate already held. No-op if l is uncontended.
func donate(c *Core, l *Lock) {
	if l == nil || l.Holder == nil {
		return
	}
	donorPriority := c.current.CurrentPriority
	holder := l.Holder
	if donorPriority <= holder.CurrentPriority {
		return
	}

	holder.CurrentPriority = donorPriority
	c.log.Donated(c.current.ID, holder.ID, donorPriority)
	if c.metrics != nil {
		c.metrics.Donations.Inc()
	}

	donate(c, holder.WaitingLock)

	if holder.WaitingLock != nil && holder.QueueElem != nil {
		holder.WaitingLock.sem.waiters.Resort(holder.QueueElem)
	}
	if holder.WaitingSema != nil && holder.QueueElem != nil {
		holder.WaitingSema.waiters.Resort(holder.QueueElem)
	}
	if holder.WaitingCondVar != nil {
		holder.WaitingCondVar.resortWaiters()
	}
	if holder.State == StateReady {
		c.policy.Requeue(holder)
	}
}
