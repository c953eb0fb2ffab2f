// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func TestNoopByDefault(t *testing.T) {
	metrics = defaultNoopMetrics()

	for _, a := range []any{
		Gauge("noopGauge"),
		Counter("noopCounter"),
		CounterVec("noopCounterVec", nil),
		Histogram("noopHist", nil),
	} {
		require.IsType(t, &noopMeters{}, a)
	}
	require.Nil(t, HTTPHandler())
}

func TestLazyLoadingAndProm(t *testing.T) {
	metrics = defaultNoopMetrics()

	lazyGauge := LazyLoadGauge("lazy_gauge")
	lazyCounter := LazyLoadCounter("lazy_counter")
	lazyCounterVec := LazyLoadCounterVec("lazy_counter_vec", []string{"source"})
	lazyHistogram := LazyLoadHistogram("lazy_hist", BucketCommitMs)

	// after initialization, newly created metrics become of the prometheus type
	InitializePrometheusMetrics()

	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promHistogramMeter{}, lazyHistogram())
	require.NotNil(t, HTTPHandler())

	lazyCounter().Add(2)
	lazyCounterVec().AddWithLabel(3, map[string]string{"source": "store"})
	lazyCounterVec().AddWithLabel(4, map[string]string{"source": "cache"})
	lazyHistogram().Observe(7)
	lazyGauge().Set(5)
	lazyGauge().Add(-1)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	found := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		found[mf.GetName()] = mf
	}

	require.Equal(t, float64(2), found["shardeum_lazy_counter"].Metric[0].GetCounter().GetValue())
	vec := found["shardeum_lazy_counter_vec"].Metric
	require.Len(t, vec, 2)
	require.Equal(t, float64(7), vec[0].GetCounter().GetValue()+vec[1].GetCounter().GetValue())
	require.Equal(t, float64(7), found["shardeum_lazy_hist"].Metric[0].GetHistogram().GetSampleSum())
	require.Equal(t, float64(4), found["shardeum_lazy_gauge"].Metric[0].GetGauge().GetValue())
}
