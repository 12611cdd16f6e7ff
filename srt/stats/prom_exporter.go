/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stats

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Collector adapts the JSON reporter's flat counter map to the Prometheus
// collection model. It holds no state between scrapes: every Collect call
// fetches a fresh /counters snapshot and emits one const gauge per key,
// so the set of exposed series always tracks the live set of counters
// (per-connection rows appear and disappear with their connections) and
// there is no registry to keep in sync.
type Collector struct {
	countersURL string
	client      *http.Client
}

// NewCollector returns a Collector scraping the JSON reporter at
// http://localhost:sourcePort.
func NewCollector(sourcePort int) *Collector {
	return &Collector{
		countersURL: fmt.Sprintf("http://localhost:%d/counters", sourcePort),
		client:      &http.Client{Timeout: 2 * time.Second},
	}
}

// Describe sends nothing: the metric set is dynamic, so the Collector is
// registered unchecked.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect fetches the current counter snapshot and emits it. A fetch
// failure yields an empty scrape rather than an error metric; the
// monitoring side notices via absence.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	resp, err := c.client.Get(c.countersURL)
	if err != nil {
		log.Errorf("srt4u counters unreachable: %v", err)
		return
	}
	defer resp.Body.Close()

	var counters map[string]int64
	if err := json.NewDecoder(resp.Body).Decode(&counters); err != nil {
		log.Errorf("srt4u counters undecodable: %v", err)
		return
	}

	for key, val := range counters {
		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(metricName(key), key, nil, nil),
			prometheus.GaugeValue,
			float64(val),
		)
	}
}

var metricNameReplacer = strings.NewReplacer(".", "_", "-", "_", " ", "_")

// metricName turns a dotted counter key into a Prometheus-legal metric
// name.
func metricName(key string) string {
	return metricNameReplacer.Replace(key)
}

// ServePrometheus blocks serving a /metrics endpoint on listenPort whose
// values are pulled from the JSON reporter on sourcePort at scrape time.
func ServePrometheus(listenPort, sourcePort int) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollector(sourcePort))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return http.ListenAndServe(fmt.Sprintf(":%d", listenPort), mux)
}
