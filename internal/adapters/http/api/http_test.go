package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/scoreboard/internal/adapters/http/api"
	repository "github.com/okian/scoreboard/internal/adapters/repository"
	service "github.com/okian/scoreboard/internal/app"
	"github.com/okian/scoreboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type submission struct {
	name  string
	score int64
}

type mockDependencies struct {
	submitted []submission
	submitErr error
	topN      []api.Entry
	topNErr   error
	lastN     int
	pingErr   error
}

func (m *mockDependencies) Submit(_ context.Context, name string, score int64) error {
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = append(m.submitted, submission{name, score})
	return nil
}

func (m *mockDependencies) TopN(_ context.Context, n int) ([]api.Entry, error) {
	m.lastN = n
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	return m.topN, nil
}

func (m *mockDependencies) DefaultLimit() int          { return 10 }
func (m *mockDependencies) Ping(context.Context) error { return m.pingErr }
func (m *mockDependencies) GetStats(context.Context) map[string]any {
	return map[string]any{"entries": 3}
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestPostScores(t *testing.T) {
	Convey("Given the scores endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When posting a valid score", func() {
			w := do(mux, http.MethodPost, "/scores", `{"name":"alice","score":100}`)

			Convey("Then it is handed to the service and acknowledged", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(deps.submitted, ShouldResemble, []submission{{"alice", 100}})
				So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/scores", `{nope`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
				So(deps.submitted, ShouldBeEmpty)
			})
		})

		Convey("When the score is missing", func() {
			w := do(mux, http.MethodPost, "/scores", `{"name":"alice"}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["message"], ShouldContainSubstring, "missing score")
			})
		})

		Convey("When the service rejects the name", func() {
			deps.submitErr = fmt.Errorf("%w: name must not be empty", service.ErrValidation)
			w := do(mux, http.MethodPost, "/scores", `{"name":"","score":1}`)

			Convey("Then it maps to a validation error", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "validation_error")
			})
		})

		Convey("When the pool is exhausted", func() {
			deps.submitErr = fmt.Errorf("%w: waited 5s", service.ErrPoolExhausted)
			w := do(mux, http.MethodPost, "/scores", `{"name":"a","score":1}`)

			Convey("Then it is a retryable 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Header().Get("Retry-After"), ShouldEqual, "1")
			})
		})

		Convey("When storage fails", func() {
			deps.submitErr = fmt.Errorf("%w: disk I/O error", service.ErrStorage)
			w := do(mux, http.MethodPost, "/scores", `{"name":"a","score":1}`)

			Convey("Then it is a 500 that hides the cause", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "internal_error")
				So(body["message"], ShouldNotContainSubstring, "disk")
			})
		})

		Convey("When using an unsupported method", func() {
			w := do(mux, http.MethodDelete, "/scores", "")

			Convey("Then it is 405 with Allow", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldContainSubstring, "POST")
			})
		})
	})
}

func TestGetScores(t *testing.T) {
	Convey("Given the scores endpoint with a max limit of 50", t, func() {
		deps := &mockDependencies{topN: []api.Entry{{Name: "alice", Score: 100, Rank: 1}}}
		mux := newMux(deps, api.WithMaxLimit(50))

		Convey("When no limit is passed", func() {
			w := do(mux, http.MethodGet, "/scores", "")

			Convey("Then the default limit is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastN, ShouldEqual, 10)
				var got []api.Entry
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldResemble, deps.topN)
			})
		})

		Convey("When limit=0", func() {
			w := do(mux, http.MethodGet, "/scores?limit=0", "")

			Convey("Then zero is passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastN, ShouldEqual, 0)
			})
		})

		Convey("When the limit is invalid", func() {
			for _, q := range []string{"abc", "-1", "1.5"} {
				w := do(mux, http.MethodGet, "/scores?limit="+q, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			}
		})

		Convey("When the limit exceeds the maximum", func() {
			w := do(mux, http.MethodGet, "/scores?limit=51", "")

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When the query fails", func() {
			deps.topNErr = errors.Join(service.ErrStorage, errors.New("malformed"))
			w := do(mux, http.MethodGet, "/scores?limit=3", "")

			Convey("Then it is a 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestCORSAndHealth(t *testing.T) {
	Convey("Given a server with a specific CORS origin", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps, api.WithCORSOrigin("https://game.example"))

		Convey("When a browser sends a preflight", func() {
			w := do(mux, http.MethodOptions, "/scores", "")

			Convey("Then it gets 204 with CORS headers", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://game.example")
				So(w.Header().Get("Access-Control-Allow-Methods"), ShouldContainSubstring, "POST")
			})
		})

		Convey("When a request id is supplied", func() {
			req := httptest.NewRequest(http.MethodGet, "/scores", nil)
			req.Header.Set(api.RequestIDHeader, "req-123")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is echoed back", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-123")
			})
		})

		Convey("When the store is healthy", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When the store is down", func() {
			deps.pingErr = errors.New("closed")
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When reading stats and metrics", func() {
			stats := do(mux, http.MethodGet, "/stats", "")
			metricsResp := do(mux, http.MethodGet, "/metrics", "")

			So(stats.Code, ShouldEqual, http.StatusOK)
			So(stats.Body.String(), ShouldContainSubstring, `"entries":3`)
			So(metricsResp.Code, ShouldEqual, http.StatusOK)
			So(metricsResp.Body.String(), ShouldContainSubstring, "scoreboard_leaderboard_http_requests_total")
		})

		Convey("When an unknown path is requested", func() {
			w := do(mux, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestEndToEnd(t *testing.T) {
	Convey("Given the API on a real SQLite store", t, func() {
		ctx := context.Background()
		store, err := repository.Open(ctx, filepath.Join(t.TempDir(), "score.db"))
		So(err, ShouldBeNil)
		defer store.Close()
		mux := newMux(service.New(store))

		Convey("When alice, bob and carol submit", func() {
			for _, body := range []string{
				`{"name":"alice","score":100}`,
				`{"name":"bob","score":100}`,
				`{"name":"carol","score":90}`,
			} {
				So(do(mux, http.MethodPost, "/scores", body).Code, ShouldEqual, http.StatusCreated)
			}
			So(do(mux, http.MethodPost, "/scores", `{"name":" ","score":5}`).Code, ShouldEqual, http.StatusBadRequest)

			Convey("Then GET /scores?limit=2 returns the tie-inclusive dense ranking", func() {
				w := do(mux, http.MethodGet, "/scores?limit=2", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual,
					`[{"name":"alice","score":100,"rank":1},{"name":"bob","score":100,"rank":1},{"name":"carol","score":90,"rank":2}]`)
			})
		})

		Convey("When the store is empty", func() {
			w := do(mux, http.MethodGet, "/scores", "")

			Convey("Then the body is an empty JSON array", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})
	})
}
