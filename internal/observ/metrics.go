package observ

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the bot exports. A nil *Metrics is valid and
// records nothing, so services can be built without it in tests.
type Metrics struct {
	registry *prometheus.Registry

	commands           *prometheus.CounterVec
	threadsOpened      *prometheus.CounterVec
	threadsClosed      prometheus.Counter
	membersRemoved     prometheus.Counter
	remindersScheduled prometheus.Counter
	deliveries         *prometheus.CounterVec
	remindersExpired   prometheus.Counter
	nicknamesUpdated   prometheus.Counter
	taskRuns           *prometheus.CounterVec
	taskDuration       *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadkeeper_commands_total",
			Help: "Slash commands handled, by command and outcome.",
		}, []string{"command", "outcome"}),
		threadsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadkeeper_threads_opened_total",
			Help: "Private threads created, by kind.",
		}, []string{"kind"}),
		threadsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadkeeper_threads_closed_total",
			Help: "Threads archived and locked by /close.",
		}),
		membersRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadkeeper_thread_members_removed_total",
			Help: "Members removed from threads by close or remove.",
		}),
		remindersScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadkeeper_reminders_scheduled_total",
			Help: "Reminders accepted by the worker API.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadkeeper_reminder_deliveries_total",
			Help: "Due reminders processed, by outcome.",
		}, []string{"outcome"}),
		remindersExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadkeeper_reminders_expired_total",
			Help: "Reminders removed by the retention sweep.",
		}),
		nicknamesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadkeeper_nicknames_updated_total",
			Help: "Nicknames rewritten by the refresh task.",
		}),
		taskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadkeeper_task_runs_total",
			Help: "Periodic task runs, by task and outcome.",
		}, []string{"task", "outcome"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "threadkeeper_task_duration_seconds",
			Help:    "Periodic task run duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.commands, m.threadsOpened, m.threadsClosed, m.membersRemoved,
		m.remindersScheduled, m.deliveries, m.remindersExpired,
		m.nicknamesUpdated, m.taskRuns, m.taskDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Command(name, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) ThreadOpened(kind string) {
	if m == nil {
		return
	}
	m.threadsOpened.WithLabelValues(kind).Inc()
}

func (m *Metrics) ThreadClosed() {
	if m == nil {
		return
	}
	m.threadsClosed.Inc()
}

func (m *Metrics) MembersRemoved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.membersRemoved.Add(float64(n))
}

func (m *Metrics) ReminderScheduled() {
	if m == nil {
		return
	}
	m.remindersScheduled.Inc()
}

func (m *Metrics) Delivery(outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RemindersExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.remindersExpired.Add(float64(n))
}

func (m *Metrics) NicknameUpdated() {
	if m == nil {
		return
	}
	m.nicknamesUpdated.Inc()
}

func (m *Metrics) TaskRun(task, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.taskRuns.WithLabelValues(task, outcome).Inc()
	m.taskDuration.WithLabelValues(task).Observe(took.Seconds())
}
