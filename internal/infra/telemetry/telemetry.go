package telemetry

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MutationMetrics records user mutation outcomes and duplicate detections.
type MutationMetrics struct {
	mutations  *prometheus.CounterVec
	duplicates *prometheus.CounterVec
}

// NewMutationMetrics registers the mutation collectors with reg.
func NewMutationMetrics(reg prometheus.Registerer) (*MutationMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	mutations, err := RegisterOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "users",
		Subsystem: "store",
		Name:      "mutations_total",
		Help:      "User mutations partitioned by operation and outcome.",
	}, []string{"operation", "outcome"}))
	if err != nil {
		return nil, fmt.Errorf("register mutations collector: %w", err)
	}

	duplicates, err := RegisterOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "users",
		Subsystem: "store",
		Name:      "duplicates_total",
		Help:      "Duplicate username or email rejections partitioned by field and the stage that detected them.",
	}, []string{"field", "detected_by"}))
	if err != nil {
		return nil, fmt.Errorf("register duplicates collector: %w", err)
	}

	return &MutationMetrics{mutations: mutations, duplicates: duplicates}, nil
}

func (m *MutationMetrics) ObserveMutation(operation, outcome string) {
	m.mutations.WithLabelValues(operation, outcome).Inc()
}

func (m *MutationMetrics) ObserveDuplicate(field, detectedBy string) {
	m.duplicates.WithLabelValues(field, detectedBy).Inc()
}

// RegisterOrReuse registers collector, returning the existing collector of the same type
// when one is already registered.
func RegisterOrReuse[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prometheus.AlreadyRegisteredError
	if !errors.As(err, &already) {
		return collector, err
	}

	existing, ok := already.ExistingCollector.(C)
	if !ok {
		return collector, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
	}
	return existing, nil
}
