package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopassist/internal/domain/entity"
)

func viewAt(id string, ts time.Time) MessageView {
	return MessageView{Message: &entity.Message{ID: id, Timestamp: ts.UnixMilli()}}
}

func TestGroupByDaySplitsAtMidnight(t *testing.T) {
	loc := time.UTC
	day1 := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)
	day2 := day1.AddDate(0, 0, 1)
	now := day2.Add(12 * time.Hour)

	groups := groupByDay([]MessageView{
		viewAt("m1", day1.Add(10*time.Hour)),
		viewAt("m2", day1.Add(23*time.Hour+59*time.Minute)),
		viewAt("m3", day2.Add(1*time.Minute)),
	}, loc, now)

	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Messages, 2)
	require.Len(t, groups[1].Messages, 1)
	assert.Equal(t, "m3", groups[1].Messages[0].ID)
}

func TestGroupByDayLabels(t *testing.T) {
	loc := time.UTC
	// A Monday, so the week window is unambiguous.
	now := time.Date(2026, 3, 9, 15, 0, 0, 0, loc)

	groups := groupByDay([]MessageView{
		viewAt("m1", now.AddDate(0, 0, -30)),
		viewAt("m2", now.AddDate(0, 0, -3)), // previous Friday
		viewAt("m3", now.AddDate(0, 0, -1)),
		viewAt("m4", now),
	}, loc, now)

	require.Len(t, groups, 4)
	assert.Equal(t, "Feb 7, 2026", groups[0].DateLabel)
	assert.Equal(t, "Friday", groups[1].DateLabel)
	assert.Equal(t, "Yesterday", groups[2].DateLabel)
	assert.Equal(t, "Today", groups[3].DateLabel)
}

func TestGroupByDayEmptyBuffer(t *testing.T) {
	assert.Empty(t, groupByDay(nil, time.UTC, time.Now()))
}

func TestGroupByDayUsesViewerTimeZone(t *testing.T) {
	// 23:30 UTC on day 1 is already day 2 in UTC+2; both messages land in the
	// same local day and must form a single group.
	loc := time.FixedZone("UTC+2", 2*60*60)
	utc1 := time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)
	utc2 := time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC)

	groups := groupByDay([]MessageView{
		viewAt("m1", utc1),
		viewAt("m2", utc2),
	}, loc, utc2)

	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Messages, 2)
}
