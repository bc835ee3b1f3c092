package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"dd/MM/yyyy", "02/01/2006"},
		{"dd/MM/yyyy HH:mm:ss", "02/01/2006 15:04:05"},
		{"yyyy-MM-dd", "2006-01-02"},
		{"dd-MM-yy", "02-01-06"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LayoutFor(tt.format), "format %q", tt.format)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("17/12/2024", "dd/MM/yyyy")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.December, 17, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("17/12/2024 18:38:00", "dd/MM/yyyy HH:mm:ss")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.December, 17, 18, 38, 0, 0, time.UTC), got)
}

func TestParseDate_DefaultFormat(t *testing.T) {
	got, err := ParseDate("2024-12-31", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_Failures(t *testing.T) {
	_, err := ParseDate("", "dd/MM/yyyy")
	assert.Error(t, err)

	_, err = ParseDate("2024-12-31", "dd/MM/yyyy")
	assert.Error(t, err, "mismatched format must fail, never guess")
}
