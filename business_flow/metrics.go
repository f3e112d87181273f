package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	plansCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plans_created_total",
		Help: "Plans created",
	})

	planJoinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plan_joins_total",
		Help: "Travellers added to an existing plan",
	})

	preferencesSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preferences_submitted_total",
		Help: "Quiz submissions by outcome",
	}, []string{"outcome"})

	materializationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suggestion_materializations_total",
		Help: "Suggestion list reads by materialization outcome",
	}, []string{"outcome"})

	votesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "votes_total",
		Help: "Votes by outcome",
	}, []string{"outcome"})

	enrichmentItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "enrichment_items_total",
		Help: "Enriched suggestion fields by kind and outcome",
	}, []string{"kind", "outcome"})
)
