package nmea

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	test_test "github.com/binnacle-labs/seabridge/test"
)

func TestLineReaderReassemblesSplitReads(t *testing.T) {
	mock := &test_test.MockReaderWriter{
		Reads: []test_test.ReadResult{
			{Read: []byte("$INMTW,17")},
			{Read: []byte(".9,C*1B\r")},
			{Read: []byte("\n$IIDBT,73.10,f,22.28,M,12.18,F*14\r\n")},
		},
	}
	r := NewLineReader(mock)

	line, err := r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "$INMTW,17.9,C*1B\r\n", line)

	line, err = r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "$IIDBT,73.10,f,22.28,M,12.18,F*14\r\n", line)
}

func TestLineReaderSkipsGarbageBeforeStartByte(t *testing.T) {
	mock := &test_test.MockReaderWriter{
		Reads: []test_test.ReadResult{
			{Read: []byte("garbage\xFF\x00$INMTW,17.9,C*1B\r\n")},
		},
	}
	r := NewLineReader(mock)

	line, err := r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "$INMTW,17.9,C*1B\r\n", line)
}

func TestLineReaderPropagatesReadError(t *testing.T) {
	mock := &test_test.MockReaderWriter{
		Reads: []test_test.ReadResult{
			{Read: []byte("$INMTW,17.9")},
			{Err: io.ErrUnexpectedEOF},
		},
	}
	r := NewLineReader(mock)

	_, err := r.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestLineReaderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewLineReader(&test_test.MockReaderWriter{})

	_, err := r.ReadLine(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
