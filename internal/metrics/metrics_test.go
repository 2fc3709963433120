package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Transition("Waiting")
	m.Transition("Waiting")
	m.Transition("MemberIdentified")
	m.Lookup("tag", "ok")
	m.Print("box", "succeeded", 1.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("Waiting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("MemberIdentified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("tag", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.prints.WithLabelValues("box", "succeeded")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.printTime))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Transition("Waiting")
	m.Lookup("pin", "not_found")
	m.Print("temp", "failed", 0)
}
