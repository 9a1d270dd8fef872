package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

func TestRecordArchive(t *testing.T) {
	archive, err := NewRecordArchive(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	defer archive.Close()

	ctx := context.Background()
	fetched := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, date := range []string{"2023-01-01", "2023-01-31", "2023-03-01"} {
		d, _ := time.Parse("2006-01-02", date)
		rec := imagery.Record{
			Coordinate: imagery.Coordinate{Lat: 29.78, Lon: -95.33},
			Date:       d,
			URL:        "https://img.test/" + date + ".png",
			Metadata:   map[string]any{"date": date, "cloud_score": json.Number("0.5")},
			FetchedAt:  fetched.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, archive.SaveRecord(ctx, "s1", rec))
	}
	require.NoError(t, archive.SaveRecord(ctx, "s2", imagery.Record{Metadata: map[string]any{}}))

	recs, err := archive.ListRecords(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2023-03-01", recs[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2023-01-31", recs[1].Date.Format("2006-01-02"))
	assert.Equal(t, json.Number("0.5"), recs[0].Metadata["cloud_score"])
	assert.Equal(t, imagery.Coordinate{Lat: 29.78, Lon: -95.33}, recs[0].Coordinate)
	assert.True(t, recs[0].FetchedAt.Equal(fetched.Add(2*time.Minute)))

	all, err := archive.ListRecords(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := archive.ListRecords(ctx, "unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
