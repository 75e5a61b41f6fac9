// SPDX-License-Identifier: MIT

package probe

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFor(t *testing.T) {
	marker := []byte("NEEDLE")
	tests := []struct {
		name  string
		input string
		limit int64
		found bool
		err   error
	}{
		{"found", "haystack NEEDLE haystack", 100, true, nil},
		{"absent", "haystack only", 100, false, nil},
		{"at end of cap", "12345NEEDLE", 11, true, nil},
		{"straddles cap", "123456NEEDLE", 11, false, errCapExceeded},
		{"exactly cap without marker", "1234567890", 10, false, nil},
		{"over cap", "12345678901", 10, false, errCapExceeded},
		{"empty", "", 10, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := scanFor(strings.NewReader(tt.input), marker, tt.limit)
			assert.Equal(t, tt.found, found)
			assert.True(t, errors.Is(err, tt.err) || (err == nil && tt.err == nil), "got %v", err)
		})
	}
}

func TestScanFor_OneByteReads(t *testing.T) {
	r := iotest.OneByteReader(strings.NewReader(strings.Repeat("-", 500) + "NEEDLE"))
	found, err := scanFor(r, []byte("NEEDLE"), 1000)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestScanFor_StopsReadingAfterMatch(t *testing.T) {
	r := io.MultiReader(strings.NewReader("NEEDLE"), iotest.ErrReader(errors.New("must not be read")))
	found, err := scanFor(iotest.OneByteReader(r), []byte("NEEDLE"), 1000)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestScanFor_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := scanFor(io.MultiReader(strings.NewReader("abc"), iotest.ErrReader(boom)), []byte("NEEDLE"), 100)
	assert.ErrorIs(t, err, boom)
}

func TestReadCapped(t *testing.T) {
	data, err := readCapped(strings.NewReader("12345"), 5)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(data))

	_, err = readCapped(strings.NewReader("123456"), 5)
	assert.ErrorIs(t, err, errCapExceeded)
}
