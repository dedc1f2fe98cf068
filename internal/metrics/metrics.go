package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SubmissionsTotal counts attendance submissions by outcome.
var SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "asistencia_submissions_total",
	Help: "Attendance submissions by result (accepted, duplicate, invalid).",
}, []string{"result"})

// LoginsTotal counts login attempts by outcome.
var LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "asistencia_logins_total",
	Help: "Login attempts by result (ok, failed).",
}, []string{"result"})
