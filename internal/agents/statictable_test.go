package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonpanggit/eol-agents/internal/models"
)

func tomcatTable() StaticTable {
	return StaticTable{
		"tomcat-9":  {Key: "tomcat-9", Cycle: "9.0", EOLDate: "2027-12-31"},
		"tomcat-10": {Key: "tomcat-10", Cycle: "10.1", EOLDate: "2030-12-31"},
	}
}

func TestStaticTableLookupExactKeyMatch(t *testing.T) {
	cycle, ok := tomcatTable().Lookup("tomcat-10", "", []string{"tomcat"})
	require.True(t, ok)
	assert.Equal(t, "10.1", cycle.Cycle)
}

func TestStaticTableLookupBuildsSyntheticKeyFromVendorTokenAndVersion(t *testing.T) {
	cycle, ok := tomcatTable().Lookup("Apache Tomcat", "10.1.16", []string{"tomcat"})
	require.True(t, ok)
	assert.Equal(t, "tomcat-10", cycle.Key)
}

func TestStaticTableLookupFallsBackToPartialMatchOnSharedVendorToken(t *testing.T) {
	cycle, ok := tomcatTable().Lookup("tomcat server", "9.0.80", []string{"tomcat"})
	require.True(t, ok)
	assert.Equal(t, "tomcat-9", cycle.Key)
}

func TestStaticTableLookupReturnsFalseWhenNothingMatches(t *testing.T) {
	_, ok := tomcatTable().Lookup("nginx", "1.25", []string{"tomcat"})
	assert.False(t, ok)
}

func TestStaticTableLookupIgnoresUnrelatedVendorEntryWithoutSharedToken(t *testing.T) {
	table := tomcatTable()
	table["httpd-2.4"] = models.StaticCycle{Key: "httpd-2.4", Cycle: "2.4"}
	_, ok := table.Lookup("some unrelated thing", "2.4", []string{"tomcat"})
	assert.False(t, ok)
}
