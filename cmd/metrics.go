package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// printMetrics dumps every series in reg.
func printMetrics(reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	fmt.Println("\n==================== METRICS ====================")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Printf("%-32s %-14s %v\n", mf.GetName(), labels(m), value(mf.GetType(), m))
		}
	}
	return nil
}

func labels(m *dto.Metric) string {
	out := ""
	for _, lp := range m.GetLabel() {
		if lp.GetName() == "cache" {
			continue
		}
		out += lp.GetName() + "=" + lp.GetValue()
	}
	return out
}

func value(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	}
	return 0
}
