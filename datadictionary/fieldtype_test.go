package datadictionary

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseXMLTypeKnownAndUnknown(t *testing.T) {
	require.Equal(t, TypeInt, ParseXMLType("INT"))
	require.Equal(t, TypeUInt, ParseXMLType("NUMINGROUP"))
	require.Equal(t, TypeDouble, ParseXMLType("PRICE"))
	require.Equal(t, TypeBoolean, ParseXMLType("BOOLEAN"))
	require.Equal(t, TypeData, ParseXMLType("DATA"))
	require.Equal(t, TypeMultipleValueString, ParseXMLType("MULTIPLEVALUESTRING"))
	require.Equal(t, TypeString, ParseXMLType("SOMETHING-UNKNOWN"))
}

func TestFieldTypeValidateDelegatesToConverters(t *testing.T) {
	require.NoError(t, TypeInt.Validate([]byte("42")))
	require.Error(t, TypeInt.Validate([]byte("x")))

	require.NoError(t, TypeUInt.Validate([]byte("3")))
	require.Error(t, TypeUInt.Validate([]byte("-3")))

	require.NoError(t, TypeDouble.Validate([]byte("1.5")))
	require.Error(t, TypeDouble.Validate([]byte("abc")))

	require.NoError(t, TypeChar.Validate([]byte("1")))
	require.Error(t, TypeChar.Validate([]byte("ab")))

	require.NoError(t, TypeBoolean.Validate([]byte("Y")))
	require.Error(t, TypeBoolean.Validate([]byte("X")))

	require.NoError(t, TypeUTCTimestamp.Validate([]byte("20240315-13:45:30")))
	require.Error(t, TypeUTCTimestamp.Validate([]byte("bad")))

	require.NoError(t, TypeUTCDateOnly.Validate([]byte("20240315")))
	require.Error(t, TypeUTCDateOnly.Validate([]byte("bad")))

	require.NoError(t, TypeUTCTimeOnly.Validate([]byte("13:45:30")))
	require.Error(t, TypeUTCTimeOnly.Validate([]byte("bad")))

	// String and unrecognized types never fail wire-format validation.
	require.NoError(t, TypeString.Validate([]byte("anything at all")))
}
