package prom

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	xhttp "github.com/shambhoomaddheshiya/yuva-finance/pkg/http"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemLedger    = "ledger"
	SystemBulk      = "bulk"
	SystemProcessor = "processor"
)
const (
	MetricTransactionsRecorded = "transactions_recorded_total"
	MetricLoanTransitions      = "loan_transitions_total"
	MetricIntegrityWarnings    = "integrity_warnings_total"
	MetricSummaryDuration      = "summary_duration_seconds"
	MetricBulkChunks           = "chunks_total"
	MetricJobsProcessed        = "jobs_processed_total"
	MetricJobDuration          = "job_duration_seconds"
	MetricQueueDepth           = "queue_depth"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionGaugeVec = make(map[string]*prometheus.GaugeVec)
var MetricCollectionHistogram = make(map[string]prometheus.Histogram)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

func Create(host string, env string, nameSpace string) error {
	defaultLabels = make(prometheus.Labels)
	defaultLabels["env"] = env
	defaultLabels["instance"] = host
	namespace = nameSpace
	MetricSystemEnabled = true

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createCounterVec(SystemLedger, MetricTransactionsRecorded, []string{"type"}))
	hasError(createCounterVec(SystemLedger, MetricLoanTransitions, []string{"transition"}))
	hasError(createCounterVec(SystemLedger, MetricIntegrityWarnings, []string{"kind"}))
	hasError(createHistogramVec(SystemLedger, MetricSummaryDuration, []string{"view"}))
	hasError(createCounterVec(SystemBulk, MetricBulkChunks, []string{"status"}))
	hasError(createCounterVec(SystemProcessor, MetricJobsProcessed, []string{"status"}))
	hasError(createHistogram(SystemProcessor, MetricJobDuration))
	hasError(createGaugeVec(SystemProcessor, MetricQueueDepth, []string{"queue"}))

	return err
}

func ListenAndServer(port string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "url", url)
	if err := s.ListenAndServe(port); err != nil {
		logger.Error("[metrics-server] http listen error", "error", err)
	}
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogram(subsystem, name string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogram[subsystem+name] = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	})
	return prometheus.Register(MetricCollectionHistogram[subsystem+name])
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(MetricCollectionHistogramVec[subsystem+name])
}

func createGaugeVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()

	MetricCollectionGaugeVec[subsystem+name] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(MetricCollectionGaugeVec[subsystem+name])
}

func SetGaugeVec(subsystem, name string, num float64, labelValues ...string) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionGaugeVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Set(num)
		return
	}
	logger.Warn("[metrics-server] gauge not found", "subsystem", subsystem, "name", name)
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogram(subsystem, name string, number float64) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionHistogram[subsystem+name]; ok {
		v.Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram not found", "subsystem", subsystem, "name", name)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func IncTransactionRecorded(txnType string) {
	IncCounterVec(SystemLedger, MetricTransactionsRecorded, txnType)
}

func IncLoanTransition(transition string) {
	IncCounterVec(SystemLedger, MetricLoanTransitions, transition)
}

func IncIntegrityWarning(kind string) {
	IncCounterVec(SystemLedger, MetricIntegrityWarnings, kind)
}

func ObserveSummaryDuration(view string, seconds float64) {
	AddHistogramVec(SystemLedger, MetricSummaryDuration, seconds, view)
}

func IncBulkChunk(status string) {
	IncCounterVec(SystemBulk, MetricBulkChunks, status)
}

func IncJobProcessed(status string) {
	IncCounterVec(SystemProcessor, MetricJobsProcessed, status)
}

func ObserveJobDuration(seconds float64) {
	AddHistogram(SystemProcessor, MetricJobDuration, seconds)
}

func SetQueueDepth(queue string, depth float64) {
	SetGaugeVec(SystemProcessor, MetricQueueDepth, depth, queue)
}
