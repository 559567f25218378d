package cli

import (
	"context"
	"fmt"
	"strings"

	dto "github.com/prometheus/client_model/go"
)

// Metrics prints the client-side request metrics collected so far.
func (a *App) Metrics(ctx context.Context) error {
	families, err := a.registry.Gather()
	if err != nil {
		a.log.Warn(ctx, "gather metrics", "error", err)
		return err
	}
	if len(families) == 0 {
		a.println("No requests made yet.")
		return nil
	}

	for _, mf := range families {
		a.println(mf.GetName())
		for _, m := range mf.GetMetric() {
			a.printf("  %s %s\n", labels(m), sample(mf.GetType(), m))
		}
	}
	return nil
}

func labels(m *dto.Metric) string {
	parts := make([]string, 0, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func sample(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%.0f", m.GetCounter().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		if h.GetSampleCount() == 0 {
			return "count=0"
		}
		avg := h.GetSampleSum() / float64(h.GetSampleCount())
		return fmt.Sprintf("count=%d avg=%.3fs", h.GetSampleCount(), avg)
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	default:
		return "-"
	}
}
