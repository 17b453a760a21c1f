package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLooseDatePrefersISOOverOtherShapes(t *testing.T) {
	d, ok := ParseLooseDate("End of life: 2027-06-30")
	require.True(t, ok)
	assert.Equal(t, "2027-06-30", d.String())
}

func TestParseLooseDateHandlesLongForm(t *testing.T) {
	d, ok := ParseLooseDate("30 June 2027")
	require.True(t, ok)
	assert.Equal(t, "2027-06-30", d.String())
}

func TestParseLooseDateHandlesUSForm(t *testing.T) {
	d, ok := ParseLooseDate("June 30, 2027")
	require.True(t, ok)
	assert.Equal(t, "2027-06-30", d.String())
}

func TestParseLooseDateHandlesMonthYearAsLastDayOfMonth(t *testing.T) {
	d, ok := ParseLooseDate("Support ends April 2027")
	require.True(t, ok)
	assert.Equal(t, "2027-04-30", d.String())
}

func TestParseLooseDateHandlesYearOnlyAsJanuaryFirst(t *testing.T) {
	d, ok := ParseLooseDate("planned for 2027")
	require.True(t, ok)
	assert.Equal(t, "2027-01-01", d.String())
}

func TestParseLooseDateReturnsFalseForUnparseableText(t *testing.T) {
	_, ok := ParseLooseDate("no date here at all")
	assert.False(t, ok)
}
