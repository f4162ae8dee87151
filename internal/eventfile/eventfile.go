// Package eventfile reads and writes schedule event files.
//
// Two encodings are supported. The line format has one record per line:
//
//	01/01/2025#8,ON
//	01/01/2025#20,OFF,12/12,AUTO,check pH
//
// where the optional trailing fields are photoperiod, mode and alert.
// Files ending in .yaml or .yml hold the same records as a YAML list.
// Validation of dates, hours and states is left to logic.Parse.
package eventfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sweeney/supercycler/internal/logic"
)

// Format selects the on-disk encoding.
type Format int

const (
	FormatLines Format = iota
	FormatYAML
)

// FormatFor picks the encoding from a file name extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatLines
	}
}

// ReadFile reads all records from the file at path.
func ReadFile(path string) ([]logic.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event file: %w", err)
	}
	defer f.Close()

	records, err := Read(f, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

// Read decodes records in the given format, preserving their order.
func Read(r io.Reader, format Format) ([]logic.Record, error) {
	if format == FormatYAML {
		return readYAML(r)
	}
	return readLines(r)
}

// Write encodes records in the given format, preserving their order.
func Write(w io.Writer, records []logic.Record, format Format) error {
	if format == FormatYAML {
		return writeYAML(w, records)
	}
	return writeLines(w, records)
}

func readLines(r io.Reader) ([]logic.Record, error) {
	var records []logic.Record

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		records = append(records, parseLine(line))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// parseLine splits a single line into a record. Missing parts are left
// empty so that logic.Parse reports them as missing fields.
func parseLine(line string) logic.Record {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	var rec logic.Record
	key := fields[0]
	if date, hour, ok := strings.Cut(key, "#"); ok {
		rec.Date = date
		rec.Hour = hour
	} else {
		rec.Date = key
	}

	opt := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	rec.State = opt(1)
	rec.Photoperiod = opt(2)
	rec.Mode = opt(3)
	rec.Alert = opt(4)
	return rec
}

func writeLines(w io.Writer, records []logic.Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		fields := []string{r.Date + "#" + r.Hour, r.State}
		switch {
		case r.Alert != "":
			fields = append(fields, r.Photoperiod, r.Mode, r.Alert)
		case r.Mode != "":
			fields = append(fields, r.Photoperiod, r.Mode)
		case r.Photoperiod != "":
			fields = append(fields, r.Photoperiod)
		}
		if _, err := bw.WriteString(strings.Join(fields, ",") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
