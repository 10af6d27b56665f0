package seatalk

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFrame(t *testing.T) {
	var testCases = []struct {
		name        string
		when        []byte
		expect      RawFrame
		expectError error
	}{
		{
			name:   "ok, depth datagram",
			when:   []byte{0x00, 0x02, 0x00, 0xDB, 0x02},
			expect: RawFrame{Command: 0x00, FirstHalf: 0, Data: []byte{0x00, 0xDB, 0x02}},
		},
		{
			name:   "ok, water temperature2 datagram",
			when:   []byte{0x27, 0x01, 0x17, 0x01},
			expect: RawFrame{Command: 0x27, FirstHalf: 0, Data: []byte{0x17, 0x01}},
		},
		{
			name:   "ok, first-half byte split out of attr",
			when:   []byte{0x54, 0xA1, 0xC3, 0x0E},
			expect: RawFrame{Command: 0x54, FirstHalf: 0x0A, Data: []byte{0xC3, 0x0E}},
		},
		{
			name:        "nok, unknown command byte",
			when:        []byte{0xF9},
			expectError: ErrUnknownCommand,
		},
		{
			name:        "nok, declared length does not match command",
			when:        []byte{0x00, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			expectError: ErrDataValidation,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(bytes.NewReader(tc.when))
			frame, err := r.ReadFrame(context.Background())
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expect, frame)
			}
		})
	}
}

// After an unknown command byte the stream advances exactly one byte, so a
// valid datagram starting at the next byte still frames.
func TestReadFrameResyncsAfterUnknownCommand(t *testing.T) {
	stream := append([]byte{0xF9}, 0x27, 0x01, 0x17, 0x01)
	r := NewReader(bytes.NewReader(stream))

	_, err := r.ReadFrame(context.Background())
	require.ErrorIs(t, err, ErrUnknownCommand)

	frame, err := r.ReadFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RawFrame{Command: 0x27, Data: []byte{0x17, 0x01}}, frame)
}

// A length mismatch consumes the declared payload so the next command byte
// is picked up cleanly.
func TestReadFrameResyncsAfterLengthMismatch(t *testing.T) {
	stream := []byte{
		0x20, 0x03, 0xAA, 0xAA, 0xAA, 0xAA, // speed1 declaring 4 payload bytes instead of 2
		0x27, 0x01, 0x17, 0x01,
	}
	r := NewReader(bytes.NewReader(stream))

	_, err := r.ReadFrame(context.Background())
	require.ErrorIs(t, err, ErrDataValidation)

	frame, err := r.ReadFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RawFrame{Command: 0x27, Data: []byte{0x17, 0x01}}, frame)
}

func TestReadFrameTruncatedStream(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x27, 0x01, 0x17}))

	_, err := r.ReadFrame(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriteFrame(t *testing.T) {
	buf := new(bytes.Buffer)
	err := WriteFrame(buf, RawFrame{Command: 0x54, FirstHalf: 0x0A, Data: []byte{0xC3, 0x0E}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x54, 0xA1, 0xC3, 0x0E}, buf.Bytes())
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	err := WriteFrame(io.Discard, RawFrame{Command: 0x00, Data: make([]byte, 18)})
	assert.ErrorIs(t, err, ErrTooMuchData)
}

func TestWriteFrameRejectsEmptyPayload(t *testing.T) {
	err := WriteFrame(io.Discard, RawFrame{Command: 0x00})
	assert.ErrorIs(t, err, ErrTooMuchData)
}
