package metricskey

import "github.com/effective-security/metrics"

// Perf
var (
	// PerfCSROperation is perf metric
	PerfCSROperation = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_csr",
		Help:         "perf_csr provides the sample metrics of certificate request operations",
		RequiredTags: []string{"action"},
	}

	// PerfCryptoOperation is perf metric
	PerfCryptoOperation = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_crypto",
		Help:         "perf_crypto provides the sample metrics of crypto operations",
		RequiredTags: []string{"provider", "action"},
	}
)

// Metrics returns slice of metrics from this repo
var Metrics = []*metrics.Describe{
	&PerfCSROperation,
	&PerfCryptoOperation,
}
