// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const chatTracerName = "instrat.chat"

var (
	// chatRequestsTotal counts handled requests.
	//
	// Labels:
	//   - mode: "plain" or "assisted" (canonical, after alias resolution)
	//   - outcome: "tool", "no_tool", "model_error"
	chatRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "instrat",
		Subsystem: "chat",
		Name:      "requests_total",
		Help:      "Chat requests by mode and outcome",
	}, []string{"mode", "outcome"})

	chatRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "instrat",
		Subsystem: "chat",
		Name:      "request_duration_seconds",
		Help:      "End-to-end HandleChat latency",
		Buckets:   []float64{0.0005, 0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"mode", "rephrased"})
)
