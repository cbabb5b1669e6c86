package fix

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseIntRoundTrip(t *testing.T) {
	n, err := ParseInt([]byte("-42"))
	require.NoError(t, err)
	require.Equal(t, -42, n)
	require.Equal(t, []byte("-42"), GenerateInt(-42))
}

func TestParseIntRejectsEmptyAndGarbage(t *testing.T) {
	_, err := ParseInt(nil)
	require.Error(t, err)
	var convErr ConvertError
	require.ErrorAs(t, err, &convErr)
	require.Equal(t, "Int", convErr.Type)

	_, err = ParseInt([]byte("12x"))
	require.Error(t, err)
}

func TestParseUIntRejectsNegative(t *testing.T) {
	_, err := ParseUInt([]byte("-1"))
	require.Error(t, err)

	n, err := ParseUInt([]byte("7"))
	require.NoError(t, err)
	require.Equal(t, uint32(7), n)
	require.Equal(t, []byte("7"), GenerateUInt(7))
}

func TestParseCheckSumRequiresThreeDigits(t *testing.T) {
	_, err := ParseCheckSum([]byte("12"))
	require.Error(t, err)

	n, err := ParseCheckSum([]byte("007"))
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.Equal(t, []byte("007"), GenerateCheckSum(7))
	require.Equal(t, []byte("000"), GenerateCheckSum(256))
}

func TestParseDoubleHandlesSignAndFraction(t *testing.T) {
	v, err := ParseDouble([]byte("-12.345"))
	require.NoError(t, err)
	require.InDelta(t, -12.345, v, 1e-9)

	_, err = ParseDouble([]byte(""))
	require.Error(t, err)

	_, err = ParseDouble([]byte("1.2.3"))
	require.Error(t, err)

	_, err = ParseDouble([]byte("12a"))
	require.Error(t, err)
}

func TestGenerateDoublePadsFractionalDigits(t *testing.T) {
	require.Equal(t, []byte("1.50"), GenerateDouble(1.5, 2))
	require.Equal(t, []byte("1"), GenerateDouble(1, 0))
}

func TestParseCharRequiresSinglePrintableByte(t *testing.T) {
	c, err := ParseChar([]byte("1"))
	require.NoError(t, err)
	require.Equal(t, byte('1'), c)

	_, err = ParseChar([]byte("ab"))
	require.Error(t, err)

	_, err = ParseChar([]byte{0x01})
	require.Error(t, err)
}

func TestParseBoolYN(t *testing.T) {
	v, err := ParseBool([]byte("Y"))
	require.NoError(t, err)
	require.True(t, v)

	v, err = ParseBool([]byte("N"))
	require.NoError(t, err)
	require.False(t, v)

	_, err = ParseBool([]byte("T"))
	require.Error(t, err)

	require.Equal(t, []byte("Y"), GenerateBool(true))
	require.Equal(t, []byte("N"), GenerateBool(false))
}

func TestUTCTimestampRoundTripSecondsAndMillis(t *testing.T) {
	ref := time.Date(2024, 3, 15, 13, 45, 30, 0, time.UTC)

	secs := GenerateUTCTimestamp(ref, false)
	require.Equal(t, "20240315-13:45:30", string(secs))
	parsed, err := ParseUTCTimestamp(secs)
	require.NoError(t, err)
	require.True(t, ref.Equal(parsed))

	millisRef := ref.Add(123 * time.Millisecond)
	millis := GenerateUTCTimestamp(millisRef, true)
	require.Equal(t, "20240315-13:45:30.123", string(millis))
	parsed, err = ParseUTCTimestamp(millis)
	require.NoError(t, err)
	require.True(t, millisRef.Equal(parsed))

	_, err = ParseUTCTimestamp([]byte("bad"))
	require.Error(t, err)
}

func TestUTCDateOnlyRoundTrip(t *testing.T) {
	ref := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	raw := GenerateUTCDateOnly(ref)
	require.Equal(t, "20240315", string(raw))

	parsed, err := ParseUTCDateOnly(raw)
	require.NoError(t, err)
	require.True(t, ref.Equal(parsed))

	_, err = ParseUTCDateOnly([]byte("2024"))
	require.Error(t, err)
}

func TestUTCTimeOnlyRoundTripSecondsAndMillis(t *testing.T) {
	ref := time.Date(0, 1, 1, 13, 45, 30, 0, time.UTC)

	secs := GenerateUTCTimeOnly(ref, false)
	require.Equal(t, "13:45:30", string(secs))
	parsed, err := ParseUTCTimeOnly(secs)
	require.NoError(t, err)
	require.Equal(t, ref.Hour(), parsed.Hour())

	millisRef := ref.Add(250 * time.Millisecond)
	millis := GenerateUTCTimeOnly(millisRef, true)
	require.Equal(t, "13:45:30.250", string(millis))
	_, err = ParseUTCTimeOnly(millis)
	require.NoError(t, err)

	_, err = ParseUTCTimeOnly([]byte("bad"))
	require.Error(t, err)
}
