package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWarID_StableAcrossPolls(t *testing.T) {
	endTime := "20240117T061510.000Z"
	first := WarID(endTime)
	second := WarID(endTime)
	assert.Equal(t, first, second)
	assert.Equal(t, endTime, first)
}

func TestLeaguePrepID_UsesSeason(t *testing.T) {
	id := LeaguePrepID("2024-01", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "cwl_prep_2024-01", id)
}

func TestLeaguePrepID_FallsBackToCurrentMonth(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "cwl_prep_2024-03", LeaguePrepID("", now))
}

func TestLeaguePrepID_FallbackIsUTC(t *testing.T) {
	// 23:30 on March 31 in UTC+2 is still March 31 in UTC.
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 4, 1, 1, 30, 0, 0, loc)
	assert.Equal(t, "cwl_prep_2024-03", LeaguePrepID("", now))
}
