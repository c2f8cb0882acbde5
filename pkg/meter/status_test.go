package meter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/meterkit/pkg/meter"
)

func TestEvaluateLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		min   *int64
		max   *int64
		value int64
		want  meter.Status
	}{
		{"unbounded", nil, nil, 1_000_000, meter.StatusInLimit},
		{"within both bounds", meter.Limit(0), meter.Limit(100), 50, meter.StatusInLimit},
		{"exactly at max is in limit", meter.Limit(0), meter.Limit(100), 100, meter.StatusInLimit},
		{"one above max", meter.Limit(0), meter.Limit(100), 101, meter.StatusAboveMax},
		{"exactly at min is in limit", meter.Limit(0), meter.Limit(100), 0, meter.StatusInLimit},
		{"one below min", meter.Limit(10), nil, 9, meter.StatusBelowMin},
		{"max of zero still constrains", nil, meter.Limit(0), 1, meter.StatusAboveMax},
		{"max of zero allows zero", nil, meter.Limit(0), 0, meter.StatusInLimit},
		{"min of zero constrains negatives", meter.Limit(0), nil, -1, meter.StatusBelowMin},
		{"max checked before min", meter.Limit(10), meter.Limit(5), 7, meter.StatusAboveMax},
		{"negative value within negative min", meter.Limit(-10), nil, -5, meter.StatusInLimit},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, meter.EvaluateLimit(tt.min, tt.max, tt.value))
		})
	}
}
