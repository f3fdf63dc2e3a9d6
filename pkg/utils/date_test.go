package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)

	date, err := ParseDate("2024-03-05", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, loc), date)

	_, err = ParseDate("", loc)
	assert.Error(t, err)

	_, err = ParseDate("05/03/2024", loc)
	assert.Error(t, err)
}

func TestGenerateID(t *testing.T) {
	id, err := GenerateID(12)
	require.NoError(t, err)
	assert.Len(t, id, 12)
	assert.Regexp(t, "^[A-Za-z0-9]+$", id)
}
