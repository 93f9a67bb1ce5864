// Package fsimport loads FlySight log files into sessions. It supports
// both on-disk formats: FS1 (a plain CSV with a "time" header row) and
// FS2 (sectioned lines starting with $FLYS).
package fsimport

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/flysightviewer/flysightviewer/pkg/engine"
	"github.com/flysightviewer/flysightviewer/pkg/telemetry"
)

// File format labels, also used as metric label values.
const (
	FormatFS1 = "fs1"
	FormatFS2 = "fs2"
)

// DeviceIDFile is the per-device marker file. The importer walks up
// from the log file looking for it; its content hash becomes DEVICE_ID.
const DeviceIDFile = "FLYSIGHT.TXT"

// FormatVar is the session variable recording the detected file format.
const FormatVar = "IMPORT_FORMAT"

// FS1 files carry a single unnamed sensor.
const fs1Sensor = "GNSS"

// Importer parses log files into sessions.
type Importer struct {
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
}

// NewImporter creates an importer. metrics and tracer may be nil.
func NewImporter(logger *telemetry.Logger, metrics *telemetry.Metrics, tracer *telemetry.Tracer) *Importer {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	return &Importer{
		logger:  logger.NewComponentLogger("importer"),
		metrics: metrics,
		tracer:  tracer,
	}
}

// ImportFile reads one log file into a fresh session. The session's
// SESSION_ID is the MD5 hex digest of the file bytes, so re-importing
// the same file yields the same ID. DEVICE_ID comes from the nearest
// FLYSIGHT.TXT up the directory tree, defaulting when none is found.
func (im *Importer) ImportFile(ctx context.Context, path string) (*engine.Session, error) {
	start := time.Now()
	var span trace.Span
	if im.tracer != nil {
		_, span = im.tracer.StartImportSpan(ctx, path)
		defer span.End()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		im.observe("unknown", "error", start)
		err = fmt.Errorf("read log file: %w", err)
		if span != nil {
			telemetry.RecordError(span, err)
		}
		return nil, err
	}

	format := detectFormat(data)
	session := engine.NewSession()

	sum := md5.Sum(data)
	session.SetVar(engine.SessionIDKey, hex.EncodeToString(sum[:]))
	session.SetVar(engine.DeviceIDKey, deviceID(path))
	session.SetVar(FormatVar, format)

	switch format {
	case FormatFS1:
		err = parseFS1(data, session)
	case FormatFS2:
		err = parseFS2(data, session)
	default:
		err = fmt.Errorf("unrecognized log format in %s", path)
	}
	if err != nil {
		im.observe(format, "error", start)
		if span != nil {
			telemetry.RecordError(span, err)
		}
		return nil, err
	}
	if span != nil {
		telemetry.RecordSuccess(span)
	}

	im.logger.WithSessionID(session.ID()).
		WithField("path", path).
		WithField("format", format).
		WithField("sensors", len(session.SensorKeys())).
		Info("Imported session")
	im.observe(format, "success", start)
	return session, nil
}

func (im *Importer) observe(format, status string, start time.Time) {
	if im.metrics != nil {
		im.metrics.ImportCompleted(format, status, time.Since(start))
	}
}

// detectFormat inspects the first line: FS2 files open with a $FLYS
// version line, FS1 files with a header row whose first column is time.
func detectFormat(data []byte) string {
	line, _, _ := strings.Cut(string(data[:min(len(data), 4096)]), "\n")
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "$FLYS"):
		return FormatFS2
	case strings.HasPrefix(line, "time"):
		return FormatFS1
	default:
		return "unknown"
	}
}

// parseFS1 reads the two header rows (column names, units) and the data
// rows of a single-sensor CSV.
func parseFS1(data []byte, session *engine.Session) error {
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return fmt.Errorf("empty file")
	}
	columns := splitCSV(scanner.Text())
	if len(columns) == 0 {
		return fmt.Errorf("missing header row")
	}

	// Second row is units; FS1 files without one start data immediately.
	series := make([][]float64, len(columns))
	if scanner.Scan() {
		first := splitCSV(scanner.Text())
		if len(first) > 0 && !isUnitsRow(first) {
			appendRow(series, first)
		}
	}

	for scanner.Scan() {
		row := splitCSV(scanner.Text())
		if len(row) == 0 {
			continue
		}
		appendRow(series, row)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan data rows: %w", err)
	}

	for i, name := range columns {
		session.SetMeasurement(fs1Sensor, name, series[i])
	}
	return nil
}

// parseFS2 reads the sectioned format: $VAR lines set session
// variables, $COL lines declare per-sensor column names, and rows after
// $DATA carry samples tagged with their sensor.
func parseFS2(data []byte, session *engine.Session) error {
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	columns := make(map[string][]string)
	series := make(map[string][][]float64)
	inData := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := splitCSV(line)
		tag := fields[0]

		if !inData {
			switch tag {
			case "$FLYS":
				// Version line; nothing to keep.
			case "$VAR":
				if len(fields) >= 3 {
					session.SetVar(fields[1], fields[2])
				}
			case "$COL":
				if len(fields) >= 3 {
					sensor := fields[1]
					columns[sensor] = fields[2:]
					series[sensor] = make([][]float64, len(fields)-2)
				}
			case "$UNIT":
				// Display hints only; conversion comes from plot descriptors.
			case "$DATA":
				inData = true
			}
			continue
		}

		sensor := strings.TrimPrefix(tag, "$")
		cols, ok := series[sensor]
		if !ok {
			continue
		}
		appendRow(cols, fields[1:])
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan data rows: %w", err)
	}
	if len(columns) == 0 {
		return fmt.Errorf("no $COL declarations")
	}

	for sensor, names := range columns {
		for i, name := range names {
			session.SetMeasurement(sensor, name, series[sensor][i])
		}
	}
	return nil
}

// isUnitsRow reports whether a row is the FS1 units row: the time
// column is blank and the rest are parenthesized labels.
func isUnitsRow(fields []string) bool {
	for _, f := range fields {
		if f == "" {
			continue
		}
		return strings.HasPrefix(f, "(")
	}
	return true
}

// appendRow parses one data row into the per-column series. Short rows
// pad with zero so columns stay aligned.
func appendRow(series [][]float64, fields []string) {
	for i := range series {
		var v float64
		if i < len(fields) {
			v = parseValue(fields[i])
		}
		series[i] = append(series[i], v)
	}
}

// parseValue parses one CSV field. ISO-8601 timestamps become epoch
// seconds; anything unparsable becomes 0.0 so a stray field never
// shifts a column.
func parseValue(field string) float64 {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0
	}
	if strings.HasSuffix(field, "Z") && strings.Contains(field, "T") {
		t, err := time.Parse(time.RFC3339Nano, field)
		if err != nil {
			return 0
		}
		return float64(t.UnixNano()) / 1e9
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0
	}
	return v
}

func splitCSV(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// deviceID finds the nearest FLYSIGHT.TXT above path and hashes it.
// Sessions from the same device share an ID regardless of which log
// file they came from.
func deviceID(path string) string {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return engine.DefaultDeviceID
	}
	for {
		marker := filepath.Join(dir, DeviceIDFile)
		if data, err := os.ReadFile(marker); err == nil {
			sum := md5.Sum(data)
			return hex.EncodeToString(sum[:])
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return engine.DefaultDeviceID
		}
		dir = parent
	}
}
