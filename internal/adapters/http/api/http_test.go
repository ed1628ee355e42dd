package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/okian/wicket/internal/adapters/http/api"
	"github.com/okian/wicket/internal/adapters/repository"
	service "github.com/okian/wicket/internal/app"
	"github.com/okian/wicket/internal/domain/classifier"
	"github.com/okian/wicket/internal/domain/features"
	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/training"
	"github.com/okian/wicket/internal/domain/types"
	"github.com/okian/wicket/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies returns canned results and records the last arguments.
type mockDependencies struct {
	records    []model.PerformanceRecord
	mutateErr  error
	saved      model.PerformanceRecord
	predict    bool
	predictErr error
	predicted  features.Vector
	trainErr   error
	topN       int
	comparison types.Comparison
	compareErr error
	criteria   model.Criteria
	trend      map[string]float64
	readErr    error
}

func (m *mockDependencies) List(context.Context) ([]model.PerformanceRecord, error) {
	return m.records, m.readErr
}

func (m *mockDependencies) Create(_ context.Context, rec model.PerformanceRecord) (model.PerformanceRecord, error) {
	if m.mutateErr != nil && !errors.Is(m.mutateErr, training.ErrRetrain) {
		return model.PerformanceRecord{}, m.mutateErr
	}
	rec.ID = "new-id"
	m.saved = rec
	return rec, m.mutateErr
}

func (m *mockDependencies) Update(_ context.Context, id string, rec model.PerformanceRecord) (model.PerformanceRecord, error) {
	if m.mutateErr != nil {
		return model.PerformanceRecord{}, m.mutateErr
	}
	rec.ID = id
	m.saved = rec
	return rec, nil
}

func (m *mockDependencies) Delete(_ context.Context, id string) error {
	m.saved = model.PerformanceRecord{ID: id}
	return m.mutateErr
}

func (m *mockDependencies) Predict(_ context.Context, v features.Vector) (bool, error) {
	m.predicted = v
	return m.predict, m.predictErr
}

func (m *mockDependencies) Train(context.Context) (types.TrainResult, error) {
	return types.TrainResult{Samples: len(m.records), Generation: 1}, m.trainErr
}

func (m *mockDependencies) TopPlayers(_ context.Context, n int) ([]model.PerformanceRecord, error) {
	m.topN = n
	return m.records, m.readErr
}

func (m *mockDependencies) Compare(context.Context, string, string) (types.Comparison, error) {
	return m.comparison, m.compareErr
}

func (m *mockDependencies) AverageStats(context.Context) (map[string]float64, error) {
	return map[string]float64{}, m.readErr
}

func (m *mockDependencies) Filter(_ context.Context, c model.Criteria) ([]model.PerformanceRecord, error) {
	m.criteria = c
	return m.records, m.readErr
}

func (m *mockDependencies) Trend(context.Context, string) (map[string]float64, error) {
	return m.trend, m.readErr
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

const validRecord = `{"average":50,"strikeRate":130,"bowlingAverage":25,"economyRate":5,"fieldingStats":10,"label":1}`

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then health endpoint should serve metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And stats endpoint should serve JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And unknown methods should be rejected", func() {
			w := do(mux, http.MethodPatch, "/api/performance", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestRecordsHandler(t *testing.T) {
	Convey("Given the records routes", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When creating a valid record", func() {
			w := do(mux, http.MethodPost, "/api/performance", validRecord)

			Convey("Then it should return 201 with the stored record", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var got model.PerformanceRecord
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.ID, ShouldEqual, "new-id")
				So(got.StrikeRate, ShouldEqual, 130)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/api/performance", "{")

			Convey("Then it should return 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
			})
		})

		Convey("When the record is invalid", func() {
			deps.mutateErr = fmt.Errorf("%w: label must be 0 or 1", model.ErrInvalidRecord)
			w := do(mux, http.MethodPost, "/api/performance", validRecord)

			Convey("Then it should return 400 invalid_record", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `"code":"invalid_record"`)
			})
		})

		Convey("When the retrain after create fails", func() {
			deps.mutateErr = fmt.Errorf("%w: %w", training.ErrRetrain, classifier.ErrInvalidLabel)
			w := do(mux, http.MethodPost, "/api/performance", validRecord)

			Convey("Then it should return 500 with the saved record", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				var got struct {
					Code   string                   `json:"code"`
					Record *model.PerformanceRecord `json:"record"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Code, ShouldEqual, "retrain_failed")
				So(got.Record, ShouldNotBeNil)
				So(got.Record.ID, ShouldEqual, "new-id")
			})
		})

		Convey("When updating a record", func() {
			w := do(mux, http.MethodPut, "/api/performance/abc", validRecord)

			Convey("Then the path id should be used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.saved.ID, ShouldEqual, "abc")
			})
		})

		Convey("When updating or deleting an unknown record", func() {
			deps.mutateErr = repository.ErrNotFound
			wu := do(mux, http.MethodPut, "/api/performance/abc", validRecord)
			wd := do(mux, http.MethodDelete, "/api/performance/abc", "")

			Convey("Then both should return 404", func() {
				So(wu.Code, ShouldEqual, http.StatusNotFound)
				So(wd.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When deleting a record", func() {
			w := do(mux, http.MethodDelete, "/api/performance/abc", "")

			Convey("Then it should return 204 with no body", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Body.Len(), ShouldEqual, 0)
				So(deps.saved.ID, ShouldEqual, "abc")
			})
		})

		Convey("When listing fails", func() {
			deps.readErr = repository.ErrClosed
			w := do(mux, http.MethodGet, "/api/performance", "")

			Convey("Then it should return 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestClassifierHandler(t *testing.T) {
	Convey("Given the classifier routes", t, func() {
		deps := &mockDependencies{predict: true}
		mux := newMux(deps)

		Convey("When predicting from complete metrics", func() {
			w := do(mux, http.MethodPost, "/api/performance/predict",
				`{"average":50.5,"strikeRate":140,"bowlingAverage":20,"economyRate":4.2,"fieldingStats":15}`)

			Convey("Then it should return the verdict as a JSON boolean", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "true")
				So(deps.predicted, ShouldResemble, features.Vector{50.5, 140, 20, 4.2, 15})
			})
		})

		Convey("When a metric is missing", func() {
			w := do(mux, http.MethodPost, "/api/performance/predict",
				`{"average":50.5,"strikeRate":140,"bowlingAverage":20,"economyRate":4.2}`)

			Convey("Then it should return 400 before predicting", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "fieldingStats")
				So(deps.predicted, ShouldResemble, features.Vector{})
			})
		})

		Convey("When the classifier is untrained", func() {
			deps.predictErr = classifier.ErrUntrained
			w := do(mux, http.MethodPost, "/api/performance/predict",
				`{"average":1,"strikeRate":1,"bowlingAverage":1,"economyRate":1,"fieldingStats":1}`)

			Convey("Then it should return 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When training succeeds", func() {
			w := do(mux, http.MethodPost, "/api/performance/train", "")

			Convey("Then it should return the success text", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, api.MessageTrained)
			})
		})

		Convey("When training fails", func() {
			deps.trainErr = training.ErrRetrain
			w := do(mux, http.MethodPost, "/api/performance/train", "")

			Convey("Then it should return the failure text", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldEqual, api.MessageTrainFailed)
			})
		})

		Convey("When training fails with logs captured", func() {
			var buf bytes.Buffer
			logger.SetOutput(&buf)
			So(logger.Init(), ShouldBeNil)
			defer func() {
				logger.SetOutput(os.Stdout)
				_ = logger.Init()
			}()

			deps.trainErr = fmt.Errorf("%w: %w", training.ErrRetrain, classifier.ErrEmptyDataset)
			w := do(mux, http.MethodPost, "/api/performance/train", "")

			Convey("Then the tagged cause should be logged", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(buf.String(), ShouldContainSubstring, "manual training failed")
				So(buf.String(), ShouldContainSubstring, "api.train: retrain failed")
				So(buf.String(), ShouldContainSubstring, classifier.ErrEmptyDataset.Error())
			})
		})
	})
}

func TestAnalyticsHandler(t *testing.T) {
	Convey("Given the analytics routes", t, func() {
		deps := &mockDependencies{
			records:    []model.PerformanceRecord{{ID: "a"}},
			comparison: types.NewComparison(types.VerdictA, "a"),
			trend:      map[string]float64{service.TrendError: -1},
		}
		mux := newMux(deps)

		Convey("When asking for the top players", func() {
			w := do(mux, http.MethodGet, "/api/performance/top/3", "")

			Convey("Then the count should be passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.topN, ShouldEqual, 3)
			})
		})

		Convey("When the count is not a number", func() {
			w := do(mux, http.MethodGet, "/api/performance/top/many", "")

			Convey("Then it should return 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When comparing as text", func() {
			w := do(mux, http.MethodGet, "/api/performance/compare/a/b", "")

			Convey("Then the body should be the verdict message", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "a is predicted to be more suitable.")
			})
		})

		Convey("When comparing as JSON", func() {
			w := do(mux, http.MethodGet, "/api/performance/compare/a/b", "", "Accept", "application/json")

			Convey("Then the body should be the structured comparison", func() {
				var got types.Comparison
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldResemble, deps.comparison)
			})
		})

		Convey("When comparing missing players", func() {
			deps.comparison = types.NewComparison(types.VerdictNotFound, "")
			w := do(mux, http.MethodGet, "/api/performance/compare/x/y", "")

			Convey("Then it should still return 200", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, types.MessageNotFound)
			})
		})

		Convey("When comparing without a classifier", func() {
			deps.compareErr = classifier.ErrUntrained
			w := do(mux, http.MethodGet, "/api/performance/compare/a/b", "")

			Convey("Then it should return 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When filtering with partial criteria", func() {
			w := do(mux, http.MethodPost, "/api/performance/filter", `{"minAverage":40}`)

			Convey("Then missing bounds should default to zero", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.criteria, ShouldResemble, model.Criteria{MinAverage: 40})
			})
		})

		Convey("When filtering with an empty body", func() {
			w := do(mux, http.MethodPost, "/api/performance/filter", "")

			Convey("Then every bound should be zero", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.criteria, ShouldResemble, model.Criteria{})
			})
		})

		Convey("When asking for averages and trends", func() {
			wa := do(mux, http.MethodGet, "/api/performance/stats/average", "")
			wt := do(mux, http.MethodGet, "/api/performance/trend/zzz", "")

			Convey("Then both should be JSON maps", func() {
				So(wa.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(wa.Body.String()), ShouldEqual, "{}")
				So(wt.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(wt.Body.String()), ShouldEqual, `{"error":-1}`)
			})
		})
	})
}

func TestAPI_EndToEnd(t *testing.T) {
	Convey("Given the API over a real service", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)

		create := func(body string) model.PerformanceRecord {
			w := do(mux, http.MethodPost, "/api/performance", body)
			So(w.Code, ShouldEqual, http.StatusCreated)
			var rec model.PerformanceRecord
			So(json.Unmarshal(w.Body.Bytes(), &rec), ShouldBeNil)
			return rec
		}

		Convey("When the classifier has never been trained", func() {
			w := do(mux, http.MethodPost, "/api/performance/predict",
				`{"average":1,"strikeRate":1,"bowlingAverage":1,"economyRate":1,"fieldingStats":1}`)

			Convey("Then prediction should be unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When players are created", func() {
			good := create(`{"average":55,"strikeRate":140,"bowlingAverage":22,"economyRate":4.5,"fieldingStats":12,"label":1}`)
			poor := create(`{"average":12,"strikeRate":70,"bowlingAverage":45,"economyRate":8,"fieldingStats":2,"label":0}`)

			Convey("Then they should be listed in creation order", func() {
				w := do(mux, http.MethodGet, "/api/performance", "")
				var list []model.PerformanceRecord
				So(json.Unmarshal(w.Body.Bytes(), &list), ShouldBeNil)
				So(len(list), ShouldEqual, 2)
				So(list[0].ID, ShouldEqual, good.ID)
				So(list[1].ID, ShouldEqual, poor.ID)
			})

			Convey("And the comparison should favour the labelled player", func() {
				w := do(mux, http.MethodGet, "/api/performance/compare/"+poor.ID+"/"+good.ID, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, good.ID+" is predicted to be more suitable.")
			})

			Convey("And deleting them all should leave nothing to rank", func() {
				So(do(mux, http.MethodDelete, "/api/performance/"+good.ID, "").Code, ShouldEqual, http.StatusNoContent)
				So(do(mux, http.MethodDelete, "/api/performance/"+poor.ID, "").Code, ShouldEqual, http.StatusNoContent)
				w := do(mux, http.MethodGet, "/api/performance/top/5", "")
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})
	})
}
