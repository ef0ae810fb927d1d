package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mall_order",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Total number of orders created",
		},
	)

	orderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mall_order",
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order lifecycle transitions by type and outcome",
		},
		[]string{"transition", "outcome"},
	)

	paymentsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mall_order",
			Subsystem: "orders",
			Name:      "payments_failed_total",
			Help:      "Total number of failed order payments",
		},
	)

	walletRecharges = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mall_order",
			Subsystem: "wallet",
			Name:      "recharges_total",
			Help:      "Total number of wallet recharges",
		},
	)

	walletConsumeRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mall_order",
			Subsystem: "wallet",
			Name:      "consume_rejected_total",
			Help:      "Total number of consume attempts rejected for insufficient balance",
		},
	)
)

func observeTransition(transition string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	orderTransitions.WithLabelValues(transition, outcome).Inc()
}
