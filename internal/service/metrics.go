package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes recorded in catalog_search_total.
const (
	outcomeFound    = "found"
	outcomeNoMatch  = "no_match"
	outcomeRejected = "rejected"
	outcomeError    = "error"
	outcomeDegraded = "degraded"
)

var searchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_search_total",
		Help: "Catalog searches by kind and outcome",
	},
	[]string{"kind", "outcome"},
)

var showMoreTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_show_more_total",
		Help: "Show-more requests by outcome",
	},
	[]string{"outcome"},
)
