// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import (
	"github.com/luxfi/metric"
)

type metrics struct {
	messagesHandled  metric.Counter
	messagesRejected metric.Counter
	lambdasCreated   metric.Counter
	responsesCreated metric.Counter
	omegasCreated    metric.Counter
	erasCreated      metric.Counter
	roundsSkipped    metric.Counter
}

func metricName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "_" + name
}

func newMetrics(namespace string) *metrics {
	return &metrics{
		messagesHandled: metric.NewCounter(metric.CounterOpts{
			Name: metricName(namespace, "messages_handled"),
			Help: "Number of validated messages fed to the runtime",
		}),
		messagesRejected: metric.NewCounter(metric.CounterOpts{
			Name: metricName(namespace, "messages_rejected"),
			Help: "Number of messages rejected by protocol validation",
		}),
		lambdasCreated: metric.NewCounter(metric.CounterOpts{
			Name: metricName(namespace, "lambda_messages_created"),
			Help: "Number of lambda messages this validator produced",
		}),
		responsesCreated: metric.NewCounter(metric.CounterOpts{
			Name: metricName(namespace, "lambda_responses_created"),
			Help: "Number of lambda response ballots this validator produced",
		}),
		omegasCreated: metric.NewCounter(metric.CounterOpts{
			Name: metricName(namespace, "omega_messages_created"),
			Help: "Number of omega ballots this validator produced",
		}),
		erasCreated: metric.NewCounter(metric.CounterOpts{
			Name: metricName(namespace, "eras_created"),
			Help: "Number of child eras constructed from switch blocks",
		}),
		roundsSkipped: metric.NewCounter(metric.CounterOpts{
			Name: metricName(namespace, "rounds_skipped"),
			Help: "Number of rounds skipped because they had already ended when due",
		}),
	}
}
