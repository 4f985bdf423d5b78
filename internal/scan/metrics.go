package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeTimeIn     = "time_in"
	outcomeTimeOut    = "time_out"
	outcomeAlreadyOut = "already_out"
	outcomeNotFound   = "not_found"
	outcomeError      = "error"
)

var scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "attendance_scans_total",
	Help: "Badge scans by outcome.",
}, []string{"outcome"})

func outcomeFor(s Status) string {
	switch s {
	case StatusTimeIn:
		return outcomeTimeIn
	case StatusTimeOut:
		return outcomeTimeOut
	default:
		return outcomeAlreadyOut
	}
}
