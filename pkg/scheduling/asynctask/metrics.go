package asynctask

import "time"

// Metric helpers are no-ops when the scheduler has no registry.

func (s *Scheduler) observeCreated(p Policy) {
	if s.metrics == nil {
		return
	}
	s.metrics.TasksCreated.WithLabelValues(s.name, p.String()).Inc()
}

func (s *Scheduler) observeExecuted(path execPath, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.TasksExecuted.WithLabelValues(s.name, string(path)).Inc()
	s.metrics.TaskDuration.WithLabelValues(s.name).Observe(d.Seconds())
}

func (s *Scheduler) observeCancelled() {
	if s.metrics == nil {
		return
	}
	s.metrics.TasksCancelled.WithLabelValues(s.name).Inc()
}

func (s *Scheduler) observeDestroyed() {
	if s.metrics == nil {
		return
	}
	s.metrics.TasksDestroyed.WithLabelValues(s.name).Inc()
}

func (s *Scheduler) observePanic() {
	if s.metrics == nil {
		return
	}
	s.metrics.TaskPanics.WithLabelValues(s.name).Inc()
}

func (s *Scheduler) observeQueue() {
	if s.metrics == nil {
		return
	}
	s.metrics.QueueDepth.WithLabelValues(s.name).Set(float64(s.queue.len()))
}

func (s *Scheduler) observeWorkers(n int) {
	if s.metrics == nil {
		return
	}
	s.metrics.Workers.WithLabelValues(s.name).Set(float64(n))
}

func (s *Scheduler) observeDetached(delta float64) {
	if s.metrics == nil {
		return
	}
	s.metrics.DetachedTasks.WithLabelValues(s.name).Add(delta)
}
