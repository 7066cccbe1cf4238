package monitoring

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_WritesJSONL(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "telemetry.jsonl")
	tracker, err := NewTracker(TelemetryConfig{Enabled: true, LogPath: logPath})
	require.NoError(t, err)

	tracker.RecordGeneration(&GenerationEvent{
		RequestID: "req-1",
		EventType: "Notification",
		Provider:  "ollama",
		Success:   true,
	})
	tracker.RecordSettings(&SettingsEvent{
		RequestID: "req-2",
		Scope:     "user",
		Operation: "patch",
		Success:   true,
	})
	require.NoError(t, tracker.Close())

	f, err := os.Open(logPath)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, lines, 2)
	assert.Equal(t, "ollama", lines[0]["provider"])
	assert.Equal(t, "patch", lines[1]["operation"])
}

func TestTracker_DisabledWritesNothing(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "telemetry.jsonl")
	tracker, err := NewTracker(TelemetryConfig{Enabled: false, LogPath: logPath})
	require.NoError(t, err)

	tracker.RecordGeneration(&GenerationEvent{RequestID: "req-1"})
	require.NoError(t, tracker.Close())

	_, err = os.Stat(logPath)
	assert.True(t, os.IsNotExist(err))
}
