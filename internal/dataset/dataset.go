// Package dataset loads the static dashboard bundles from disk and turns
// their series rows into analytics records. Bundles are read once and never
// mutated afterwards; every request shares the same slices read-only.
package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/irfndi/liquidity-lens/internal/analytics"
	"github.com/irfndi/liquidity-lens/internal/models"
)

const (
	VersionV1 = "v1"
	VersionV2 = "v2"

	dateLayout = "2006-01"
)

// ErrUnknownVersion is returned when a dashboard version has no loaded bundle.
var ErrUnknownVersion = errors.New("unknown dashboard version")

// layout describes where each version keeps its series and which signals it blends.
type layout struct {
	seriesKey     string
	structuralKey string
	tacticalKey   string
}

var layouts = map[string]layout{
	VersionV1: {seriesKey: "data", structuralKey: analytics.KeyScore},
	VersionV2: {seriesKey: "index_data", structuralKey: analytics.KeyStructural, tacticalKey: analytics.KeyTactical},
}

// Dataset is one loaded, validated dashboard bundle.
type Dataset struct {
	Version       string
	Records       []analytics.Record
	Fingerprint   string
	StructuralKey string
	TacticalKey   string
	DefaultLag    int
	MaxLag        int
	V1            *models.BundleV1
	V2            *models.BundleV2
	// Tables holds every top-level key except the series, byte-for-byte.
	Tables   map[string]json.RawMessage
	LoadedAt time.Time
}

// FirstDate returns the first month in the series.
func (d *Dataset) FirstDate() string {
	if len(d.Records) == 0 {
		return ""
	}
	return d.Records[0].Date
}

// LastDate returns the last month in the series.
func (d *Dataset) LastDate() string {
	if len(d.Records) == 0 {
		return ""
	}
	return d.Records[len(d.Records)-1].Date
}

// SupportsBlend reports whether the bundle carries a tactical band.
func (d *Dataset) SupportsBlend() bool {
	return d.TacticalKey != ""
}

// Signals lists the numeric signal fields present in any record, sorted.
func (d *Dataset) Signals() []string {
	seen := make(map[string]struct{})
	for _, r := range d.Records {
		for k := range r.Signals {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Parse decodes and validates one bundle. maxLag bounds the lag slider for the version.
func Parse(version string, raw []byte, maxLag int) (*Dataset, error) {
	lay, ok := layouts[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("failed to decode %s bundle: %w", version, err)
	}

	rows, ok := top[lay.seriesKey]
	if !ok {
		return nil, fmt.Errorf("%s bundle is missing %q", version, lay.seriesKey)
	}
	records, err := parseRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("%s bundle: %w", version, err)
	}
	if err := validateRecords(records); err != nil {
		return nil, fmt.Errorf("%s bundle: %w", version, err)
	}

	tables := make(map[string]json.RawMessage, len(top)-1)
	for k, v := range top {
		if k != lay.seriesKey {
			tables[k] = v
		}
	}

	sum := sha256.Sum256(rows)
	ds := &Dataset{
		Version:       version,
		Records:       records,
		Fingerprint:   hex.EncodeToString(sum[:8]),
		StructuralKey: lay.structuralKey,
		TacticalKey:   lay.tacticalKey,
		MaxLag:        maxLag,
		Tables:        tables,
		LoadedAt:      time.Now().UTC(),
	}

	switch version {
	case VersionV1:
		var b models.BundleV1
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("failed to decode v1 tables: %w", err)
		}
		ds.V1 = &b
		ds.DefaultLag = b.Meta.OptimalLag
	case VersionV2:
		var b models.BundleV2
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("failed to decode v2 tables: %w", err)
		}
		ds.V2 = &b
		ds.DefaultLag = b.Meta.OptimalLag
	}
	ds.DefaultLag = max(0, min(ds.DefaultLag, maxLag))

	return ds, nil
}

// parseRecords converts raw series rows. "date" and "log_btc" are lifted out;
// every other numeric or null field becomes a named signal. Non-numeric fields are ignored.
func parseRecords(raw json.RawMessage) ([]analytics.Record, error) {
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("series rows: %w", err)
	}

	records := make([]analytics.Record, 0, len(rows))
	for i, row := range rows {
		var date string
		if err := json.Unmarshal(row["date"], &date); err != nil || date == "" {
			return nil, fmt.Errorf("row %d: missing or invalid date", i)
		}

		rec := analytics.Record{Date: date, Signals: make(map[string]*float64, len(row))}
		for key, value := range row {
			if key == "date" {
				continue
			}
			v, ok := numeric(value)
			if !ok {
				continue
			}
			if key == "log_btc" {
				rec.LogPrice = v
				continue
			}
			rec.Signals[key] = v
		}
		records = append(records, rec)
	}
	return records, nil
}

// numeric decodes a JSON number or null. ok is false for any other kind.
func numeric(raw json.RawMessage) (*float64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, true
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, false
	}
	return &f, true
}

func validateRecords(records []analytics.Record) error {
	if len(records) == 0 {
		return errors.New("series is empty")
	}
	var prev time.Time
	for i, r := range records {
		t, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return fmt.Errorf("row %d: date %q is not YYYY-MM", i, r.Date)
		}
		if i > 0 && !t.After(prev) {
			return fmt.Errorf("row %d: date %s does not follow %s", i, r.Date, records[i-1].Date)
		}
		prev = t
	}
	return nil
}
