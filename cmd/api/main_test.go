package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicapi/internal/service"
)

func TestParseWindow(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		from, to string
		wantFrom time.Time
		wantTo   time.Time
		wantErr  string
	}{
		{name: "defaults to yesterday", wantFrom: day(14), wantTo: day(15)},
		{name: "lone from spans a day", from: "2026-10-01", wantFrom: day(1), wantTo: day(2)},
		{name: "explicit dates", from: "2026-10-01", to: "2026-10-08", wantFrom: day(1), wantTo: day(8)},
		{
			name:     "rfc3339 bounds are converted to utc",
			from:     "2026-10-14T02:00:00+02:00",
			to:       "2026-10-14T06:00:00Z",
			wantFrom: day(14),
			wantTo:   day(14).Add(6 * time.Hour),
		},
		{name: "bad from", from: "yesterday", wantErr: "invalid --from"},
		{name: "bad to", to: "14/10/2026", wantErr: "invalid --to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := parseWindow(tt.from, tt.to, now)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantFrom.Equal(from), "from = %s", from)
			assert.True(t, tt.wantTo.Equal(to), "to = %s", to)
		})
	}
}

func TestParseWindow_Inverted(t *testing.T) {
	_, _, err := parseWindow("2026-10-08", "2026-10-01", time.Now())
	assert.ErrorIs(t, err, service.ErrInvalidWindow)
}
