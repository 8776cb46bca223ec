package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/dimas0311/home-price-predictor/models"
)

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "listings.csv")

	lat, lon := 30.27, -97.74
	listings := []*models.Listing{
		{
			DedupKey: "111", Source: models.SourceRedfin,
			URL: "https://www.redfin.com/home/111", Address: "1 Oak St",
			City: "Austin", Latitude: &lat, Longitude: &lon,
			Price: 500000, Beds: "3 beds", Baths: "2 baths", Area: 1800,
		},
		{DedupKey: "no-coords", Source: models.SourceLocal, Price: 0},
	}

	if err := ExportCSV(path, listings); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open exported file: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("exported %d rows; want header plus 2 listings", len(rows))
	}
	if rows[0][0] != "key" {
		t.Errorf("header starts with %q; want key", rows[0][0])
	}
	if rows[1][0] != "111" || rows[1][8] != "500000" {
		t.Errorf("row = %v; want key 111 with price 500000", rows[1])
	}
	if rows[2][6] != "" || rows[2][7] != "" {
		t.Errorf("listing without coordinates exported lat/lon %q/%q; want empty", rows[2][6], rows[2][7])
	}
}
