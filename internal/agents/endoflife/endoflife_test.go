package endoflife

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

func newTestAgent(baseURL string) *Agent {
	c := cache.New(nil, time.Hour, applog.NoOp{})
	return New(c, applog.NoOp{}, baseURL, 5*time.Second)
}

func TestIsRelevantAlwaysReturnsTrue(t *testing.T) {
	a := newTestAgent("")
	assert.True(t, a.IsRelevant("literally anything"))
	assert.True(t, a.IsRelevant(""))
}

func TestNewDefaultsBaseURLWhenEmpty(t *testing.T) {
	a := newTestAgent("")
	assert.Equal(t, "https://endoflife.date/api", a.baseURL)
}

func TestGetEOLDataSelectsCycleMatchingVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/some-product.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"cycle":"3.12","eol":"2028-10-31","support":"2026-04-30","releaseDate":"2023-10-02","latest":"3.12.1"},
			{"cycle":"3.11","eol":"2027-10-24","support":"2025-04-24","releaseDate":"2022-10-24","latest":"3.11.6"}
		]`))
	}))
	defer srv.Close()

	a := newTestAgent(srv.URL)
	env := a.GetEOLData(context.Background(), "Some Product", "3.11.6")

	require.True(t, env.Success)
	assert.Equal(t, "2027-10-24", env.EOLDate.String())
	assert.Equal(t, models.DataSourceScraped, env.DataSource)
}

func TestGetEOLDataWithoutVersionUsesNewestCycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"cycle":"3.12","eol":"2028-10-31","support":false,"releaseDate":"2023-10-02"}]`))
	}))
	defer srv.Close()

	a := newTestAgent(srv.URL)
	env := a.GetEOLData(context.Background(), "Some Product", "")

	require.True(t, env.Success)
	assert.Equal(t, "2028-10-31", env.EOLDate.String())
	assert.False(t, env.SupportEndDate.Valid(), "a false support field should not parse into a date")
}

func TestGetEOLDataReturnsFailureOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := newTestAgent(srv.URL)
	env := a.GetEOLData(context.Background(), "Nonexistent Thing", "")

	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, models.ErrNoDataFound, env.Error.Code)
}

func TestGetEOLDataReturnsFailureWhenNoCycleMatchesVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"cycle":"3.12","eol":"2028-10-31","releaseDate":"2023-10-02"}]`))
	}))
	defer srv.Close()

	a := newTestAgent(srv.URL)
	env := a.GetEOLData(context.Background(), "Some Product", "1.0")

	assert.False(t, env.Success)
}

func TestSlugifyLowercasesAndHyphenatesSeparators(t *testing.T) {
	assert.Equal(t, "some-product", slugify("Some Product"))
	assert.Equal(t, "some-product", slugify("some_product"))
}
