package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
)

func TestParseTimeRange(t *testing.T) {
	tr, err := ParseTimeRange("09:00-17:30")
	require.NoError(t, err)
	assert.Equal(t, TimeRange{Start: 9 * 60, End: 17*60 + 30}, tr)
	assert.Equal(t, "09:00-17:30", tr.String())
	assert.False(t, tr.CrossesMidnight())

	tr, err = ParseTimeRange(" 8:05 - 9:45 ")
	require.NoError(t, err)
	assert.Equal(t, TimeRange{Start: 8*60 + 5, End: 9*60 + 45}, tr)

	night, err := ParseTimeRange("22:00-06:00")
	require.NoError(t, err)
	assert.True(t, night.CrossesMidnight())
	assert.False(t, night.Contains(time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)))
	assert.False(t, night.Contains(time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)))

	for _, bad := range []string{"", "0900-1700", "09:00", "24:00-25:00", "09:60-10:00", "9-17", "ab:cd-ef:gh", "09:00-17:0", "-09:00-17:00"} {
		_, err := ParseTimeRange(bad)
		assert.Error(t, err, "input %q", bad)
		assert.True(t, errors.Is(err, echo_errors.ErrInvalidTimeRange), "input %q", bad)
	}
}

func TestCheckPurpose(t *testing.T) {
	assert.NoError(t, CheckPurpose("Investigating Q3 payroll discrepancy"))
	assert.NoError(t, CheckPurpose("  Annual compensation review  "))

	assert.ErrorIs(t, CheckPurpose(""), ErrPurposeTooShort)
	assert.ErrorIs(t, CheckPurpose("payroll  "), ErrPurposeTooShort)
	assert.ErrorIs(t, CheckPurpose("          payroll"), ErrPurposeTooShort)

	for _, phrase := range EvasivePhrases() {
		padded := "Quarterly review: " + strings.ToUpper(phrase)
		assert.ErrorIs(t, CheckPurpose(padded), ErrPurposeNotAcceptable, "phrase %q", phrase)
	}
	assert.ErrorIs(t, CheckPurpose("Latest payroll audit"), ErrPurposeNotAcceptable, "substring match catches 'test' inside words")
}

func TestOfficeNetwork(t *testing.T) {
	n, err := NewOfficeNetwork([]string{"127.0.0.1", " 192.168.10.0/24 ", "", "2001:db8::/32"})
	require.NoError(t, err)

	assert.True(t, n.Contains("127.0.0.1"))
	assert.True(t, n.Contains("192.168.10.254"))
	assert.True(t, n.Contains("::ffff:192.168.10.3"))
	assert.True(t, n.Contains("2001:db8::1"))
	assert.False(t, n.Contains("192.168.11.1"))
	assert.False(t, n.Contains("localhost"))

	var none *OfficeNetwork
	assert.False(t, none.Contains("127.0.0.1"))

	_, err = NewOfficeNetwork([]string{"300.1.1.1"})
	assert.Error(t, err)
	_, err = NewOfficeNetwork([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}
