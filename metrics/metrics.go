package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "avivia_bookings_created_total",
		Help: "Total number of confirmed bookings",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "avivia_bookings_cancelled_total",
		Help: "Total number of cancelled bookings",
	})

	BookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avivia_bookings_rejected_total",
		Help: "Total number of rejected booking attempts by reason",
	}, []string{"reason"})

	WaitlistAdds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "avivia_waitlist_adds_total",
		Help: "Total number of waitlist signups",
	})

	BatchCommits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "avivia_batch_commits_total",
		Help: "Total number of selection batch commits",
	})

	SyncErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "avivia_sync_errors_total",
		Help: "Total number of remote store persistence failures",
	})
)
