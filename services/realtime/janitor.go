package realtime

import (
	"github.com/robfig/cron/v3"
)

// StartJanitor schedules periodic pruning of connections whose transport
// died without an explicit leave. Returns the scheduler so the caller can
// stop it on shutdown.
func StartJanitor(registry *SessionRegistry, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = "@every 1m"
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, registry.Prune); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
