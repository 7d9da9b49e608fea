// Package scheduler runs jobs on cron schedules.
//
// It wraps github.com/robfig/cron/v3 with job ids, a context that is canceled on
// shutdown, zerolog logging and Prometheus metrics. Overlapping runs of the same
// job are skipped and panics are recovered and logged.
//
// Basic Usage:
//
// 	s := scheduler.NewWithConfig(scheduler.Config{
// 		Logger:  logger,
// 		Metrics: metrics.DefaultConfig(),
// 	})
//
// 	err := s.Schedule("snapshot", "@every 5m", scheduler.JobFunc(func(ctx context.Context) error {
// 		return exportSnapshot(ctx)
// 	}))
// 	if err != nil {
// 		return err
// 	}
//
// 	s.Start()
// 	defer s.Stop(context.Background())
//
// Expressions:
//
// Five fields (minute hour day month weekday), an optional leading seconds field,
// or a descriptor:
//
// 	"*/10 * * * * *"  every ten seconds
// 	"0 */2 * * *"     every two hours
// 	"30 14 * * 1-5"   2:30 PM on weekdays
// 	"@hourly"         once an hour
// 	"@every 90s"      fixed interval
//
// Use ValidateCronExpression to check user input before scheduling.
package scheduler
