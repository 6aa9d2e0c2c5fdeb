/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package auth

import "github.com/prometheus/client_golang/prometheus"

const (
	attemptSuccess          = "success"
	attemptFailure          = "failure"
	attemptAborted          = "aborted"
	attemptInvalidMechanism = "invalid_mechanism"
)

var saslAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "vysper",
		Subsystem: "sasl",
		Name:      "attempts_total",
		Help:      "Total SASL authentication attempts.",
	},
	[]string{"mechanism", "result"},
)

func init() {
	prometheus.MustRegister(saslAttempts)
}

func reportAttempt(mechanism, result string) {
	saslAttempts.With(prometheus.Labels{
		"mechanism": mechanism,
		"result":    result,
	}).Inc()
}
