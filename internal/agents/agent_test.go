package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonpanggit/eol-agents/internal/models"
)

func TestMatchesAnyIsCaseInsensitive(t *testing.T) {
	assert.True(t, MatchesAny("Red Hat Enterprise Linux 9", []string{"red hat", "rhel"}))
	assert.True(t, MatchesAny("RHEL 9", []string{"red hat", "rhel"}))
	assert.False(t, MatchesAny("Ubuntu 22.04", []string{"red hat", "rhel"}))
}

func TestBaseSuccessClampsConfidenceAndFillsEnvelope(t *testing.T) {
	base := NewBase("apache")
	eol, _ := models.ParseDate("2030-12-31")

	env := base.Success("tomcat", "10.1", eol, models.Date{}, models.Date{}, 1.5, "https://example.test", models.DataSourceStatic)

	require.True(t, env.Success)
	assert.Equal(t, "apache", env.AgentUsed)
	assert.Equal(t, 1.0, env.Confidence, "confidence should clamp to the 1.0 ceiling")
	assert.True(t, env.HasLifecycleDate())
}

func TestBaseFailureBuildsErrorEnvelope(t *testing.T) {
	base := NewBase("apache")
	env := base.Failure("tomcat", "10.1", models.ErrNoDataFound, "no data")

	assert.False(t, env.Success)
	assert.Equal(t, "apache", env.AgentUsed)
	require.NotNil(t, env.Error)
	assert.Equal(t, models.ErrNoDataFound, env.Error.Code)
}
