package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGet_Singleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}

func TestGet_CountersIncrement(t *testing.T) {
	m := Get()
	before := testutil.ToFloat64(m.Vendors.WithLabelValues(VendorSkipped))
	m.Vendors.WithLabelValues(VendorSkipped).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(m.Vendors.WithLabelValues(VendorSkipped)))
}
