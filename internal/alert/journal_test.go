package alert_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/havenmon/sysmond/internal/alert"
)

func TestJournalRequiresPath(t *testing.T) {
	_, err := alert.NewJournal("")
	require.Error(t, err)
}

func TestJournalRecordsNotifiedEvents(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "alerts.db")

	journal, err := alert.NewJournal(dbPath)
	require.NoError(t, err)

	threshold := 90.0
	journal.Notify(alert.Event{
		SensorID:  "cpu_usage",
		Name:      "CPU Usage",
		Value:     95.5,
		Threshold: &threshold,
		At:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	journal.Notify(alert.Event{
		SensorID: "rpi_under_voltage",
		Name:     "Under Voltage",
		Value:    "on",
		At:       time.Date(2024, 6, 1, 12, 1, 0, 0, time.UTC),
	})
	require.NoError(t, journal.Close())

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT sensor_id, name, value, threshold FROM alerts ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	type row struct {
		sensorID  string
		name      string
		value     string
		threshold sql.NullFloat64
	}

	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.sensorID, &r.name, &r.value, &r.threshold))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	require.Len(t, got, 2)

	assert.Equal(t, "cpu_usage", got[0].sensorID)
	assert.Equal(t, "CPU Usage", got[0].name)
	assert.Equal(t, "95.5", got[0].value)
	require.True(t, got[0].threshold.Valid)
	assert.InDelta(t, 90.0, got[0].threshold.Float64, 0.001)

	assert.Equal(t, "rpi_under_voltage", got[1].sensorID)
	assert.Equal(t, "on", got[1].value)
	assert.False(t, got[1].threshold.Valid)
}
