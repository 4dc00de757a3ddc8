package booking

import (
	"fmt"
	"strconv"
	"strings"
)

const maxSequence = 999

// CodePrefix is the two digit year prefix of a booking code.
func CodePrefix(year int) string {
	return fmt.Sprintf("%02d", year%100)
}

// NextBookingCode derives the next code for year from the largest code
// already issued for it.  maxExisting is "" when the year has none yet,
// in which case the sequence starts at 001.  A maxExisting from another
// year is ignored.
func NextBookingCode(year int, maxExisting string) (string, error) {
	prefix := CodePrefix(year)
	seq := 0
	if strings.HasPrefix(maxExisting, prefix) {
		n, err := strconv.Atoi(maxExisting[len(prefix):])
		if len(maxExisting) != 5 || err != nil || n < 0 {
			return "", fmt.Errorf("malformed booking code %q", maxExisting)
		}
		seq = n
	}
	if seq >= maxSequence {
		return "", ErrSequenceExhausted
	}
	return fmt.Sprintf("%s%03d", prefix, seq+1), nil
}
