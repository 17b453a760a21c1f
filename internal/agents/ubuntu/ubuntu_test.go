package ubuntu

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

func newTestAgent() *Agent {
	c := cache.New(nil, time.Hour, applog.NoOp{})
	return New(c, applog.NoOp{}, 5*time.Second)
}

func TestIsRelevantOnlyMatchesUbuntu(t *testing.T) {
	a := newTestAgent()
	assert.True(t, a.IsRelevant("Ubuntu 22.04 LTS"))
	assert.False(t, a.IsRelevant("Debian 12"))
}

func TestGetEOLDataResolvesLTSReleaseFromStaticTable(t *testing.T) {
	a := newTestAgent()
	env := a.GetEOLData(context.Background(), "Ubuntu", "20.04")

	require.True(t, env.Success)
	assert.Equal(t, "2030-04-23", env.EOLDate.String())
	assert.Equal(t, models.DataSourceStatic, env.DataSource)
}

func TestNormalizeCycleKeyStripsTheLTSSuffix(t *testing.T) {
	assert.Equal(t, "ubuntu-20.04", normalizeCycleKey("20.04 LTS"))
	assert.Equal(t, "ubuntu-23.10", normalizeCycleKey("23.10"))
	assert.Equal(t, "ubuntu", normalizeCycleKey(""))
}

func TestParseRowExtractsCycleAndBothDates(t *testing.T) {
	html := `<table><tr>
		<td>20.04</td><td>Focal Fossa</td><td>2020-04-23</td><td>2030-04-23</td>
	</tr></table>`

	rows := parseReleaseTable(html)
	require.Len(t, rows, 1)
	assert.Equal(t, "20.04", rows[0].Cycle)
	assert.Equal(t, "2020-04-23", rows[0].ReleaseDate.String())
	assert.Equal(t, "2030-04-23", rows[0].EOLDate.String())
}

func TestParseRowSkipsRowsWithoutAVersionCell(t *testing.T) {
	html := `<table><tr><td>Focal Fossa</td><td>2020-04-23</td></tr></table>`
	rows := parseReleaseTable(html)
	assert.Empty(t, rows)
}

func TestBulkFetchParsesEveryRowFromTheReleasesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><table>
			<tr><td>20.04</td><td>Focal Fossa</td><td>2020-04-23</td><td>2030-04-23</td></tr>
			<tr><td>22.04</td><td>Jammy Jellyfish</td><td>2022-04-21</td><td>2032-04-21</td></tr>
		</table></body></html>`))
	}))
	defer srv.Close()

	a := newTestAgent()
	urlRegistry[0].URL = srv.URL

	rows, err := a.BulkFetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "20.04", rows[0].Cycle)
	assert.Equal(t, "22.04", rows[1].Cycle)
}

func TestBulkFetchReturnsErrorOnNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := newTestAgent()
	urlRegistry[0].URL = srv.URL

	_, err := a.BulkFetch(context.Background())
	assert.Error(t, err)
}

func TestRefreshCacheWritesScrapedRowsServedByLaterLookups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><table>
			<tr><td>24.10</td><td>Oracular Oriole</td><td>2024-10-10</td><td>2025-07-10</td></tr>
		</table></body></html>`))
	}))
	defer srv.Close()

	a := newTestAgent()
	urlRegistry[0].URL = srv.URL

	refreshed, err := a.RefreshCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)

	env := a.GetEOLData(context.Background(), "ubuntu-24.10", "")
	require.True(t, env.Success)
	assert.Equal(t, models.DataSourceScraped, env.DataSource)
	assert.Equal(t, "2025-07-10", env.EOLDate.String())
}
