// SPDX-License-Identifier: MIT

package probe

import (
	"bytes"
	"errors"
	"io"
)

var errCapExceeded = errors.New("size cap exceeded")

const scanChunk = 32 << 10

// readCapped reads all of r. More than limit bytes yields errCapExceeded.
func readCapped(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errCapExceeded
	}
	return data, nil
}

// scanFor reports whether marker occurs within the first limit bytes of r.
// It returns as soon as the marker is seen, without reading further. When
// limit bytes pass without a match and more data follows, it returns
// errCapExceeded.
func scanFor(r io.Reader, marker []byte, limit int64) (bool, error) {
	if len(marker) == 0 {
		return true, nil
	}
	keep := len(marker) - 1
	window := make([]byte, 0, scanChunk+keep)
	chunk := make([]byte, scanChunk)
	lr := &io.LimitedReader{R: r, N: limit}

	for {
		n, err := lr.Read(chunk)
		if n > 0 {
			window = append(window, chunk[:n]...)
			if bytes.Contains(window, marker) {
				return true, nil
			}
			if len(window) > keep {
				window = append(window[:0], window[len(window)-keep:]...)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return false, err
		}
	}

	if lr.N > 0 {
		return false, nil
	}
	// Cap reached: anything left means the body was too large.
	var one [1]byte
	if n, _ := io.ReadFull(r, one[:]); n > 0 {
		return false, errCapExceeded
	}
	return false, nil
}
