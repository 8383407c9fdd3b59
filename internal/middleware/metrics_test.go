package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/items/{barcode}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/api/items/{barcode}", "404"))
	for _, bc := range []string{"1", "2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/items/"+bc, nil))
	}
	after := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/api/items/{barcode}", "404"))
	if after-before != 2 {
		t.Errorf("counter delta: got %v, want 2", after-before)
	}
}

func TestInitMetrics_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	extra := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_extra_total", Help: "x"})
	InitMetrics(reg, extra)

	extra.Inc()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_extra_total" {
			found = true
		}
	}
	if !found {
		t.Error("extra collector not registered")
	}
}
