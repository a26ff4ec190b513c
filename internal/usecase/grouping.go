package usecase

import (
	"time"

	"shopassist/internal/domain/entity"
)

// MessageView is a buffered message with whatever product attachments have
// resolved so far. Unresolved refs render as text only.
type MessageView struct {
	*entity.Message
	Products []entity.ProductSummary `json:"products,omitempty"`
}

// MessageGroup is one calendar day's worth of adjacent messages.
type MessageGroup struct {
	DateLabel string        `json:"date_label"`
	Messages  []MessageView `json:"messages"`
}

// groupByDay projects the buffer into date-labelled groups with a single
// linear pass, starting a new group whenever a message's calendar day (in the
// viewer's time zone) differs from the previous one. The projection is pure;
// it holds no state of its own.
func groupByDay(messages []MessageView, loc *time.Location, now time.Time) []MessageGroup {
	var groups []MessageGroup
	var lastDay time.Time

	for _, view := range messages {
		day := startOfDay(time.UnixMilli(view.Timestamp).In(loc))
		if len(groups) == 0 || !day.Equal(lastDay) {
			groups = append(groups, MessageGroup{
				DateLabel: dateLabel(day, startOfDay(now.In(loc))),
			})
			lastDay = day
		}
		last := len(groups) - 1
		groups[last].Messages = append(groups[last].Messages, view)
	}

	return groups
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dateLabel(day, today time.Time) string {
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case day.After(today.AddDate(0, 0, -7)):
		return day.Weekday().String()
	default:
		return day.Format("Jan 2, 2006")
	}
}
