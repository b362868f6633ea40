package link

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommLog(t *testing.T) {
	var l CommLog
	l.RecordSent([]byte("ab"))
	l.RecordSent([]byte("cd"))
	l.RecordReceived([]byte("xy*"), []byte("xy"))
	require.Equal(t, []byte("abcd"), l.Sent())
	require.Equal(t, []byte("cd"), l.LastSent())
	require.Equal(t, []byte("xy*"), l.Received())
	require.Equal(t, []byte("xy"), l.LastReceived())
}

func TestCommLogLimit(t *testing.T) {
	l := CommLog{Limit: 4}
	l.RecordSent([]byte("abc"))
	l.RecordSent([]byte("def"))
	require.Equal(t, []byte("cdef"), l.Sent())
	require.Equal(t, []byte("def"), l.LastSent())

	l.RecordReceived([]byte("0123456789"), []byte("78"))
	require.Equal(t, []byte("6789"), l.Received())
	require.Equal(t, []byte("78"), l.LastReceived())
}
