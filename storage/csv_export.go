package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dimas0311/home-price-predictor/models"
)

// ExportCSV writes the given listings to a CSV file for offline inspection.
// The file is created (or truncated) with a header row; intermediate
// directories are created automatically.
func ExportCSV(path string, listings []*models.Listing) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"key", "source", "url", "address", "city", "country",
		"latitude", "longitude", "price", "beds", "baths", "area",
	}); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, l := range listings {
		var lat, lon string
		if l.HasCoordinates() {
			lat = strconv.FormatFloat(*l.Latitude, 'f', -1, 64)
			lon = strconv.FormatFloat(*l.Longitude, 'f', -1, 64)
		}

		row := []string{
			l.DedupKey, l.Source, l.URL, l.Address, l.City, l.Country,
			lat, lon,
			strconv.FormatInt(l.Price, 10),
			l.Beds, l.Baths,
			strconv.Itoa(l.Area),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
