package httpclient

import (
	"errors"
	"fmt"
	"io"
)

// ResponseTooLargeError reports a body that ran past the configured cap.
type ResponseTooLargeError struct {
	Limit int64
}

func (e ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response body larger than %d byte limit", e.Limit)
}

// IsResponseTooLarge reports whether err wraps a ResponseTooLargeError.
func IsResponseTooLarge(err error) bool {
	var limitErr ResponseTooLargeError
	return errors.As(err, &limitErr)
}

// ReadAllWithLimit drains r up to limit bytes. Upstream agents echo prompts
// back in their envelopes, so replies are capped rather than trusted.
// A limit of zero or less reads everything.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) == limit {
		// Probe one more byte to tell exactly-at-limit from over-limit.
		var probe [1]byte
		if n, _ := r.Read(probe[:]); n > 0 {
			return nil, ResponseTooLargeError{Limit: limit}
		}
	}
	return data, nil
}
