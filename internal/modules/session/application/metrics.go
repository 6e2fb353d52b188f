package application

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// sessionGauge reports the live session count of the most recently built service
type sessionGauge struct {
	count atomic.Pointer[func() int]
}

func (g *sessionGauge) track(fn func() int) {
	g.count.Store(&fn)
}

func (g *sessionGauge) value() float64 {
	if fn := g.count.Load(); fn != nil {
		return float64((*fn)())
	}
	return 0
}

var activeSessions = &sessionGauge{}

var activeSessionsGauge = promauto.NewGaugeFunc(prometheus.GaugeOpts{
	Name: "qrdrop_sessions_active",
	Help: "Sessions held in memory. Sessions do not expire.",
}, activeSessions.value)

var (
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrdrop_sessions_created_total",
		Help: "Sessions created.",
	})

	filesUploaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrdrop_files_uploaded_total",
		Help: "Files accepted by upload, by media family.",
	}, []string{"family"})

	filesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrdrop_files_rejected_total",
		Help: "Upload parts refused for their media type.",
	})

	uploadedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrdrop_uploaded_bytes_total",
		Help: "Bytes written to the content store by uploads.",
	})

	filesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrdrop_files_deleted_total",
		Help: "Files removed from sessions.",
	})

	archivesStreamed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrdrop_archives_streamed_total",
		Help: "ZIP archives streamed, by result.",
	}, []string{"result"})
)
