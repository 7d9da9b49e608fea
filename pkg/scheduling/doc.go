/*
Package scheduling runs recurring work.

  - scheduler: Cron-based scheduling of context-aware jobs

	s := scheduler.New()
	err := s.Schedule("snapshot", "@every 5m", scheduler.JobFunc(func(ctx context.Context) error {
		return exporter.Run(ctx)
	}))
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop(context.Background())

Jobs receive a context that is canceled when the scheduler stops.
*/
package scheduling
