package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/meetingmind/mm/internal/models"
)

var (
	_ list.Item = meetingItem{}
)

// meetingItem wraps [models.Meeting] to implement [list.Item].
type meetingItem struct {
	meeting models.Meeting
}

func (i meetingItem) FilterValue() string { return i.meeting.Title }
func (i meetingItem) Title() string       { return i.meeting.Title }
func (i meetingItem) Description() string {
	desc := string(i.meeting.Status)
	if i.meeting.ScheduledAt != nil && !i.meeting.ScheduledAt.IsZero() {
		desc = fmt.Sprintf("%s • %s", desc, i.meeting.ScheduledAt.Format("Mon Jan 2 15:04"))
	}
	if i.meeting.Platform != nil && *i.meeting.Platform != "" {
		desc = fmt.Sprintf("%s • %s", desc, *i.meeting.Platform)
	}
	return desc
}

func meetingItems(meetings []models.Meeting) []list.Item {
	items := make([]list.Item, len(meetings))
	for i, m := range meetings {
		items[i] = meetingItem{meeting: m}
	}
	return items
}
