package link

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	require.Equal(t, []byte{'F', '0', 'F' ^ '0' ^ 0xA9, '*'}, Encode8('F', '0'))
	require.Equal(t, []byte{'D', 5, 'D' ^ 5 ^ 0xA9, '*'}, Encode8('D', 5))
	require.Equal(t, []byte{'G', '4', '5', 'G' ^ '4' ^ '5' ^ 0xA9, '*'}, Encode16('G', '4', '5'))
}

func TestFrameBytes(t *testing.T) {
	tests := []struct {
		name   string
		frame  Frame
		expect []byte
		err    error
	}{
		{"8-bit", Frame{Code: 'S', Data: []byte{'0'}}, Encode8('S', '0'), nil},
		{"16-bit", Frame{Code: 'G', Data: []byte{'9', '0'}}, Encode16('G', '9', '0'), nil},
		{"no data", Frame{Code: 'S'}, nil, ErrInvalidPayload},
		{"too much data", Frame{Code: 'S', Data: []byte{1, 2, 3}}, nil, ErrInvalidPayload},
		{"terminator in data", Frame{Code: 'D', Data: []byte{Terminator}}, nil, ErrInvalidPayload},
		{"terminator as command", Frame{Code: Terminator, Data: []byte{'0'}}, nil, ErrInvalidPayload},
		{"checksum is terminator 8-bit", Frame{Code: 'D', Data: []byte{0xC7}}, nil, ErrInvalidPayload},
		{"checksum is terminator 16-bit", Frame{Code: 'G', Data: []byte{0xC4, 0x00}}, nil, ErrInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.frame.Bytes()
			if tt.err != nil {
				require.True(t, errors.Is(err, tt.err), "unexpected error %v", err)
				var buf bytes.Buffer
				_, err = tt.frame.WriteTo(&buf)
				require.True(t, errors.Is(err, tt.err))
				require.Zero(t, buf.Len())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expect, b)

			var buf bytes.Buffer
			n, err := tt.frame.WriteTo(&buf)
			require.NoError(t, err)
			require.EqualValues(t, len(tt.expect), n)
			require.Equal(t, tt.expect, buf.Bytes())
		})
	}
}

func TestDecodeAndVerify(t *testing.T) {
	t.Run("round trip 8-bit", func(t *testing.T) {
		r, err := DecodeAndVerify(Encode8('F', '0'))
		require.NoError(t, err)
		require.True(t, r.Valid)
		require.Equal(t, [2]byte{'F', '0'}, r.Payload)
		require.Equal(t, "F0", r.PayloadString())
	})
	t.Run("round trip 16-bit", func(t *testing.T) {
		r, err := DecodeAndVerify(Encode16('D', '1', '7'))
		require.NoError(t, err)
		require.True(t, r.Valid)
		require.Equal(t, "17", r.PayloadString())
	})
	t.Run("leading noise", func(t *testing.T) {
		buf := append([]byte{0x00, 'x', 'y'}, Encode16('D', 'O', 'K')...)
		r, err := DecodeAndVerify(buf)
		require.NoError(t, err)
		require.True(t, r.Valid)
		require.Equal(t, "OK", r.PayloadString())
		require.Equal(t, buf, r.Raw)
	})
	t.Run("checksum mismatch", func(t *testing.T) {
		buf := Encode16('D', '1', '7')
		buf[3]++
		r, err := DecodeAndVerify(buf)
		require.NoError(t, err)
		require.False(t, r.Valid)
		require.Equal(t, "17", r.PayloadString())
	})
	t.Run("missing terminator", func(t *testing.T) {
		_, err := DecodeAndVerify([]byte{'F', '0', 'F' ^ '0' ^ 0xA9, '#'})
		require.True(t, errors.Is(err, ErrMalformedResponse))
	})
	for n := 0; n < MinFrameLen; n++ {
		buf := bytes.Repeat([]byte{Terminator}, n)
		_, err := DecodeAndVerify(buf)
		require.Error(t, err, "length %d", n)
		require.True(t, errors.Is(err, ErrMalformedResponse), "length %d", n)
		var merr *MalformedError
		require.True(t, errors.As(err, &merr))
		require.Equal(t, n, merr.Len)
	}
}

func TestDecodeDetectsBitFlips(t *testing.T) {
	frames := [][]byte{Encode8('F', '0'), Encode8('D', 5), Encode16('G', '4', '5')}
	for _, frame := range frames {
		// every bit of command and data bytes, checksum untouched.
		for i := 0; i < len(frame)-2; i++ {
			for bit := uint(0); bit < 8; bit++ {
				buf := append([]byte(nil), frame...)
				buf[i] ^= 1 << bit
				if buf[i] == Terminator {
					continue
				}
				r, err := DecodeAndVerify(buf)
				require.NoError(t, err)
				require.False(t, r.Valid, "frame % x byte %d bit %d", frame, i, bit)
			}
		}
	}
}
