package prosody

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadF0 parses an F0 contour with one value (Hz) per line, 0 for
// unvoiced frames. Only the first field of a line is read; blank lines and
// lines starting with # are skipped.
func ReadF0(r io.Reader) ([]float64, error) {
	var f0 []float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		v, err := strconv.ParseFloat(strings.Fields(s)[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		f0 = append(f0, v)
	}
	return f0, sc.Err()
}
