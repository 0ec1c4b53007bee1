package cookiefile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

const httpOnlyPrefix = "#HttpOnly_"

// entry is one line of the file. Raw lines (comments, blanks) are kept
// verbatim so a rewrite preserves them.
type entry struct {
	raw    string
	record *domain.CredentialRecord
}

// parse reads every line. Malformed cookie lines are kept as raw text.
func parse(r io.Reader) ([]entry, error) {
	var entries []entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		rec, ok := parseLine(line)
		if !ok {
			entries = append(entries, entry{raw: line})
			continue
		}
		entries = append(entries, entry{raw: line, record: rec})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cookie file: %w", err)
	}
	return entries, nil
}

func parseLine(line string) (*domain.CredentialRecord, bool) {
	httpOnly := false
	if strings.HasPrefix(line, httpOnlyPrefix) {
		httpOnly = true
		line = strings.TrimPrefix(line, httpOnlyPrefix)
	}
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}

	fields := strings.Split(line, "\t")
	if len(fields) != 7 {
		return nil, false
	}

	expiry, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, false
	}

	rec := &domain.CredentialRecord{
		Domain:   fields[0],
		Path:     fields[2],
		Secure:   strings.EqualFold(fields[3], "TRUE"),
		Name:     fields[5],
		Value:    fields[6],
		HTTPOnly: httpOnly,
		Session:  expiry == 0,
	}
	if expiry != 0 {
		t := time.Unix(expiry, 0).UTC()
		rec.ExpiresAt = &t
	}
	return rec, true
}

// format renders a record as a cookie line.
func format(rec domain.CredentialRecord) string {
	prefix := ""
	if rec.HTTPOnly {
		prefix = httpOnlyPrefix
	}
	expiry := int64(0)
	if rec.ExpiresAt != nil {
		expiry = rec.ExpiresAt.Unix()
	}
	return strings.Join([]string{
		prefix + rec.Domain,
		boolField(strings.HasPrefix(rec.Domain, ".")),
		rec.Path,
		boolField(rec.Secure),
		strconv.FormatInt(expiry, 10),
		rec.Name,
		rec.Value,
	}, "\t")
}

func boolField(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
