// Package climatedb builds SQLite fixtures with the hawaii.sqlite layout for tests.
package climatedb

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// Schema mirrors the tables of the published hawaii.sqlite dataset.
const Schema = `
CREATE TABLE measurement (
  id      INTEGER PRIMARY KEY,
  station TEXT,
  date    TEXT,
  prcp    FLOAT,
  tobs    FLOAT
);
CREATE TABLE station (
  id        INTEGER PRIMARY KEY,
  station   TEXT,
  name      TEXT,
  latitude  FLOAT,
  longitude FLOAT,
  elevation FLOAT
);
`

type Station struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
	Elevation float64
}

type Measurement struct {
	Station string
	Date    string
	Prcp    *float64
	Tobs    float64
}

// Dataset is inserted in slice order, which is also the store-default order.
type Dataset struct {
	Stations     []Station
	Measurements []Measurement
}

func Prcp(v float64) *float64 { return &v }

// OpenMemory returns a single-connection in-memory database loaded with ds.
func OpenMemory(t *testing.T, ds Dataset) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Every pooled connection to :memory: is a distinct database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	Load(t, db, ds)
	return db
}

// WriteFile creates a database file in a temp dir and returns its path.
func WriteFile(t *testing.T, ds Dataset) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hawaii.sqlite")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	Load(t, db, ds)
	if err := db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}
	return path
}

func Load(t *testing.T, db *sql.DB, ds Dataset) {
	t.Helper()
	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("exec schema: %v", err)
	}
	for _, s := range ds.Stations {
		_, err := db.Exec(
			`INSERT INTO station (station, name, latitude, longitude, elevation) VALUES (?, ?, ?, ?, ?)`,
			s.ID, s.Name, s.Latitude, s.Longitude, s.Elevation,
		)
		if err != nil {
			t.Fatalf("insert station %s: %v", s.ID, err)
		}
	}
	for _, m := range ds.Measurements {
		var prcp any
		if m.Prcp != nil {
			prcp = *m.Prcp
		}
		_, err := db.Exec(
			`INSERT INTO measurement (station, date, prcp, tobs) VALUES (?, ?, ?, ?)`,
			m.Station, m.Date, prcp, m.Tobs,
		)
		if err != nil {
			t.Fatalf("insert measurement %s/%s: %v", m.Station, m.Date, err)
		}
	}
}

// Hawaii is a small slice of the real dataset: three stations, USC00519281
// the most active, latest date 2017-08-23.
func Hawaii() Dataset {
	return Dataset{
		Stations: []Station{
			{ID: "USC00519397", Name: "WAIKIKI 717.2, HI US", Latitude: 21.2716, Longitude: -157.8168, Elevation: 3.0},
			{ID: "USC00513117", Name: "KANEOHE 838.1, HI US", Latitude: 21.4234, Longitude: -157.8015, Elevation: 14.6},
			{ID: "USC00519281", Name: "WAIHEE 837.5, HI US", Latitude: 21.45167, Longitude: -157.84889, Elevation: 32.9},
		},
		Measurements: []Measurement{
			{Station: "USC00519397", Date: "2010-01-01", Prcp: Prcp(0.08), Tobs: 65},
			{Station: "USC00519397", Date: "2016-08-22", Prcp: Prcp(0.40), Tobs: 78},
			{Station: "USC00519397", Date: "2016-08-23", Prcp: Prcp(0.00), Tobs: 81},
			{Station: "USC00519397", Date: "2017-08-23", Prcp: Prcp(0.00), Tobs: 81},
			{Station: "USC00513117", Date: "2016-08-24", Prcp: nil, Tobs: 76},
			{Station: "USC00513117", Date: "2017-01-01", Prcp: Prcp(0.29), Tobs: 68},
			{Station: "USC00519281", Date: "2016-08-21", Prcp: Prcp(0.02), Tobs: 79},
			{Station: "USC00519281", Date: "2016-08-23", Prcp: Prcp(1.79), Tobs: 77},
			{Station: "USC00519281", Date: "2017-02-15", Prcp: Prcp(0.01), Tobs: 70},
			{Station: "USC00519281", Date: "2017-08-18", Prcp: Prcp(0.06), Tobs: 79},
			{Station: "USC00519281", Date: "2017-08-22", Prcp: Prcp(0.50), Tobs: 76},
		},
	}
}
