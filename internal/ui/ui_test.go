package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ragloader/pkg/models"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "2.5 MiB", FormatBytes(int64(2.5*1024*1024)))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "subject", firstLine("subject\nbody\nmore"))
	assert.Equal(t, "single", firstLine("single"))
}

func TestGetSuggestion(t *testing.T) {
	assert.Contains(t, getSuggestion("Login failed with status 401"), "setup")
	assert.Contains(t, getSuggestion("dial tcp: connection refused"), "API URL")
	assert.Contains(t, getSuggestion("Rate limited after 3 attempts"), "delay")
	assert.Empty(t, getSuggestion("something else entirely"))
}

func TestProgressBarCountsOutcomes(t *testing.T) {
	p := NewProgressBar(3)
	p.Update(1, "a.py", models.OutcomeUploaded)
	p.Update(2, "b.py", models.OutcomeDuplicate)
	p.Update(3, "c.py", models.OutcomeFailed)

	assert.Equal(t, 1, p.uploadedCount)
	assert.Equal(t, 1, p.duplicateCount)
	assert.Equal(t, 1, p.failedCount)
	assert.Equal(t, 3, p.current)
}

func TestNewUIModes(t *testing.T) {
	u := NewUI(true, false)
	assert.True(t, u.IsVerbose())
	assert.False(t, u.IsQuiet())
}

func TestSpinnerStopIsIdempotentOnMessage(t *testing.T) {
	s := NewSpinner("working")
	s.Start()
	s.UpdateMessage("still working")
	s.Stop(true, "done")
	assert.True(t, s.stopped)
}
