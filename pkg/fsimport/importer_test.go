package fsimport

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/flysightviewer/flysightviewer/pkg/engine"
)

const fs1Sample = `time,lat,lon,hMSL,velN,velE,velD
,(deg),(deg),(m),(m/s),(m/s),(m/s)
2015-05-01T12:00:00.00Z,50.0,4.0,1000.0,0.0,0.0,1.0
2015-05-01T12:00:01.00Z,50.1,4.1,999.0,0.0,0.0,2.0
2015-05-01T12:00:02.00Z,50.2,bogus,998.0,0.0,0.0,3.0
`

const fs2Sample = `$FLYS,1
$VAR,FIRMWARE_VER,v2023.05.01
$COL,GNSS,time,lat,lon
$COL,BARO,time,pressure
$UNIT,GNSS,s,deg,deg
$DATA
$GNSS,2015-05-01T12:00:00.00Z,50.0,4.0
$BARO,0.0,101325
$GNSS,2015-05-01T12:00:01.00Z,50.1,4.1
$MYSTERY,1,2,3
`

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestImportFS1(t *testing.T) {
	im := NewImporter(nil, nil, nil)
	path := writeLog(t, t.TempDir(), "12-34-56.CSV", fs1Sample)

	session, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	defer session.Close()

	if format, _ := session.Var(FormatVar); format != FormatFS1 {
		t.Errorf("format = %q, want %q", format, FormatFS1)
	}

	times, ok := session.GetMeasurement("GNSS", "time")
	if !ok || len(times) != 3 {
		t.Fatalf("GNSS/time = %v (ok=%v)", times, ok)
	}
	// ISO timestamps parse to epoch seconds.
	if math.Abs(times[0]-1430481600) > 1e-6 {
		t.Errorf("times[0] = %f, want 1430481600", times[0])
	}
	if math.Abs(times[1]-times[0]-1.0) > 1e-6 {
		t.Errorf("expected one-second cadence, got %f", times[1]-times[0])
	}

	velD, ok := session.GetMeasurement("GNSS", "velD")
	if !ok || len(velD) != 3 || velD[2] != 3.0 {
		t.Errorf("GNSS/velD = %v (ok=%v)", velD, ok)
	}

	// A malformed field becomes 0.0 without shifting the column.
	lon, _ := session.GetMeasurement("GNSS", "lon")
	if lon[2] != 0.0 {
		t.Errorf("malformed field should parse to 0, got %g", lon[2])
	}
	hMSL, _ := session.GetMeasurement("GNSS", "hMSL")
	if hMSL[2] != 998.0 {
		t.Errorf("column after malformed field shifted: %g", hMSL[2])
	}
}

func TestImportFS2(t *testing.T) {
	im := NewImporter(nil, nil, nil)
	path := writeLog(t, t.TempDir(), "TRACK.CSV", fs2Sample)

	session, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	defer session.Close()

	if format, _ := session.Var(FormatVar); format != FormatFS2 {
		t.Errorf("format = %q, want %q", format, FormatFS2)
	}
	if fw, _ := session.Var("FIRMWARE_VER"); fw != "v2023.05.01" {
		t.Errorf("FIRMWARE_VER = %q", fw)
	}

	lat, ok := session.GetMeasurement("GNSS", "lat")
	if !ok || len(lat) != 2 || lat[1] != 50.1 {
		t.Errorf("GNSS/lat = %v (ok=%v)", lat, ok)
	}
	pressure, ok := session.GetMeasurement("BARO", "pressure")
	if !ok || len(pressure) != 1 || pressure[0] != 101325 {
		t.Errorf("BARO/pressure = %v (ok=%v)", pressure, ok)
	}

	// Data rows for undeclared sensors are dropped.
	sensors := session.SensorKeys()
	for _, s := range sensors {
		if s == "MYSTERY" {
			t.Error("undeclared sensor should be skipped")
		}
	}
}

func TestSessionIDStableAcrossImports(t *testing.T) {
	im := NewImporter(nil, nil, nil)
	dir := t.TempDir()
	path := writeLog(t, dir, "A.CSV", fs1Sample)
	other := writeLog(t, dir, "B.CSV", fs2Sample)

	s1, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	s3, err := im.ImportFile(context.Background(), other)
	if err != nil {
		t.Fatal(err)
	}
	defer s1.Close()
	defer s2.Close()
	defer s3.Close()

	if s1.ID() != s2.ID() {
		t.Errorf("same file should yield the same session ID: %s vs %s", s1.ID(), s2.ID())
	}
	if s1.ID() == s3.ID() {
		t.Error("different files should yield different session IDs")
	}
}

func TestDeviceIDWalkUp(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, DeviceIDFile), []byte("FlySight unit 42\n"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "logs", "2015-05-01")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	path := writeLog(t, sub, "12-34-56.CSV", fs1Sample)

	im := NewImporter(nil, nil, nil)
	session, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	deviceID, _ := session.Var(engine.DeviceIDKey)
	if deviceID == engine.DefaultDeviceID || deviceID == "" {
		t.Errorf("expected device ID from marker file, got %q", deviceID)
	}

	// Without a marker the default applies.
	lone := writeLog(t, t.TempDir(), "X.CSV", fs1Sample)
	session2, err := im.ImportFile(context.Background(), lone)
	if err != nil {
		t.Fatal(err)
	}
	defer session2.Close()
	if id, _ := session2.Var(engine.DeviceIDKey); id != engine.DefaultDeviceID {
		t.Errorf("device ID = %q, want %q", id, engine.DefaultDeviceID)
	}
}

func TestImportRejectsUnknownFormat(t *testing.T) {
	im := NewImporter(nil, nil, nil)
	path := writeLog(t, t.TempDir(), "junk.CSV", "not,a,flysight,log\n1,2,3,4\n")

	if _, err := im.ImportFile(context.Background(), path); err == nil {
		t.Error("expected an error for an unrecognized format")
	}
	if _, err := im.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.CSV")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestIsLogFile(t *testing.T) {
	if !isLogFile("a.csv") || !isLogFile("A.CSV") {
		t.Error("csv extensions should match case-insensitively")
	}
	if isLogFile("notes.txt") || isLogFile("csv") {
		t.Error("non-csv paths should not match")
	}
}
