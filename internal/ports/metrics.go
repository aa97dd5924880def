package ports

import "time"

// MetricsSink receives counters and timings. statsd.Client satisfies it.
type MetricsSink interface {
	Count(name string, value int64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}
