// Package questions reads line-delimited JSON question records.
package questions

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/medresolve/medkb-go/internal/apptype"
)

// ReadAll consumes line-delimited JSON records. A line that fails to
// parse, or parses without a question field, is skipped with a log;
// processing continues with the next line.
func ReadAll(r io.Reader, logger *slog.Logger) ([]apptype.QuestionRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var records []apptype.QuestionRecord
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec apptype.QuestionRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			logger.Warn("skipping malformed question record", "line", line, "error", err)
			continue
		}
		if strings.TrimSpace(rec.Question) == "" {
			logger.Warn("skipping record without a question", "line", line)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("read question records: %w", err)
	}
	return records, nil
}

// ParseOrdinals parses a comma-separated list of 1-based record ordinals
// ("1,4,7") into a set. An empty input yields a nil set, meaning no
// restriction.
func ParseOrdinals(s string) (map[int]struct{}, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	set := make(map[int]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid record ordinal %q: %w", part, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("record ordinals are 1-based, got %d", n)
		}
		set[n] = struct{}{}
	}
	return set, nil
}

// Filter keeps the records whose 1-based ordinal is in the set. A nil set
// keeps everything.
func Filter(records []apptype.QuestionRecord, ordinals map[int]struct{}) []apptype.QuestionRecord {
	if ordinals == nil {
		return records
	}
	var out []apptype.QuestionRecord
	for i, rec := range records {
		if _, ok := ordinals[i+1]; ok {
			out = append(out, rec)
		}
	}
	return out
}
