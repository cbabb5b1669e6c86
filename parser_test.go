package quickfix

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qyangdu/gofix/fix"
	"github.com/qyangdu/gofix/fix/tag"
)

func buildTestMessage(t *testing.T) []byte {
	t.Helper()
	m := NewMessage("FIX.4.2", "0")
	m.Header.Set(fix.NewStringField(tag.SenderCompID, "A"))
	m.Header.Set(fix.NewStringField(tag.TargetCompID, "B"))
	m.Header.Set(fix.NewIntField(tag.MsgSeqNum, 1))
	raw, err := m.Build()
	require.NoError(t, err)
	return raw
}

func TestParserFramesOneMessage(t *testing.T) {
	p := NewParser(0)
	raw := buildTestMessage(t)
	p.Append(raw)

	got, err := p.Next()
	require.NoError(t, err)
	require.Equal(t, raw, got)

	got, err = p.Next()
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestParserFramesAcrossPartialReads(t *testing.T) {
	p := NewParser(0)
	raw := buildTestMessage(t)

	p.Append(raw[:10])
	got, err := p.Next()
	require.NoError(t, err)
	require.Nil(t, got)

	p.Append(raw[10:])
	got, err = p.Next()
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestParserDiscardsGarbageBeforeBeginString(t *testing.T) {
	p := NewParser(0)
	raw := buildTestMessage(t)
	p.Append(append([]byte("garbage-bytes-"), raw...))

	got, err := p.Next()
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestParserTwoMessagesBackToBack(t *testing.T) {
	p := NewParser(0)
	raw := buildTestMessage(t)
	p.Append(raw)
	p.Append(raw)

	first, err := p.Next()
	require.NoError(t, err)
	require.Equal(t, raw, first)

	second, err := p.Next()
	require.NoError(t, err)
	require.Equal(t, raw, second)
}

func TestParserRejectsOversizeMessage(t *testing.T) {
	p := NewParser(8)
	p.Append(buildTestMessage(t))

	_, err := p.Next()
	require.Error(t, err)
	var fe FrameError
	require.ErrorAs(t, err, &fe)
}

func TestParserRecoversAfterBadBodyLength(t *testing.T) {
	p := NewParser(0)
	p.Append([]byte("8=FIX.4.2\x019=notanumber\x0110=000\x01"))
	_, err := p.Next()
	require.Error(t, err)

	raw := buildTestMessage(t)
	p.Append(raw)
	got, err := p.Next()
	require.NoError(t, err)
	require.Equal(t, raw, got)
}
