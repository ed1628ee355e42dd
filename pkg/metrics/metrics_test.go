package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating a manager with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("x_"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRetrainBuckets([]float64{10, 100}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.retrainBuckets, ShouldResemble, []float64{10, 100})
				So(manager.constLabels, ShouldResemble, map[string]string{"env": "test"})
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
			})

			Convey("And metric names should carry the prefix", func() {
				manager.totalRecords.Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_x_records" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When passing empty or zero values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithRefreshInterval(0),
				WithHistogramBuckets(nil),
				WithRetrainBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "wicket")
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.retrainBuckets, ShouldResemble, defaultRetrainBuckets)
				So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording retrains", func() {
			before := testutil.ToFloat64(globalManager.retrains)
			RecordRetrain(12.5, 40, 7)

			Convey("Then counters and gauges should move", func() {
				So(testutil.ToFloat64(globalManager.retrains), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.trainingSamples), ShouldEqual, 40)
				So(testutil.ToFloat64(globalManager.modelGeneration), ShouldEqual, 7)
			})
		})

		Convey("When recording retrain failures", func() {
			c := globalManager.retrainFailures.WithLabelValues("manual")
			before := testutil.ToFloat64(c)
			RecordRetrainFailure("manual")

			Convey("Then the trigger counter should increase", func() {
				So(testutil.ToFloat64(c), ShouldEqual, before+1)
			})
		})

		Convey("When recording predictions and comparisons", func() {
			yes := globalManager.predictions.WithLabelValues("true")
			tie := globalManager.comparisons.WithLabelValues("tie")
			beforeYes, beforeTie := testutil.ToFloat64(yes), testutil.ToFloat64(tie)
			RecordPrediction(true)
			RecordComparison("tie")

			Convey("Then labelled counters should increase", func() {
				So(testutil.ToFloat64(yes), ShouldEqual, beforeYes+1)
				So(testutil.ToFloat64(tie), ShouldEqual, beforeTie+1)
			})
		})

		Convey("When recording record mutations", func() {
			So(func() {
				RecordMutation("create")
				RecordMutation("update")
				RecordMutation("delete")
				UpdateTotalRecords(3)
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.totalRecords), ShouldEqual, 3)
		})

		Convey("When recording HTTP, repository and error metrics", func() {
			So(func() {
				RecordHTTPRequest("top", "GET", "200")
				RecordHTTPRequestDuration("top", "GET", "200", 4.0)
				RecordRepositoryQueryLatency(0.2)
				RecordRepositoryUpdateLatency(0.4)
				RecordErrorByComponent("repository", "not_found")
				RecordErrorByType("not_found", "medium")
				RecordErrorByEndpoint("compare", "GET", "not_found")
				RecordErrorLatency("http", "not_found", 1.0)
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordRetrain(1, 1, 1)

		Convey("Then it should expose wicket metrics only", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "wicket_"), ShouldBeTrue)
			}
		})
	})
}
