package signalvectest

import (
	"fmt"
	"time"

	"github.com/snowcat-chat/signalvec"
)

// Message and Notification make up a small two-sided timeline for Merge tests.
type Message struct {
	ID   string    `json:"id"`
	Time time.Time `json:"time"`
}

func (m Message) String() string { return fmt.Sprintf("%s@%s", m.ID, m.Time.Format("15:04:05")) }

type Notification struct {
	ID   string    `json:"id"`
	Time time.Time `json:"time"`
}

func (n Notification) String() string { return fmt.Sprintf("%s@%s", n.ID, n.Time.Format("15:04:05")) }

func at(clock string) time.Time {
	t, err := time.Parse(time.DateTime, "2022-07-17 "+clock)
	if err != nil {
		panic(err)
	}
	return t
}

// Messages returns eight messages, m0..m7, in time order.
func Messages() []Message {
	clocks := []string{"03:31:13", "06:13:38", "12:02:11", "12:13:40", "17:50:08", "18:45:29", "19:03:06", "19:36:29"}
	messages := make([]Message, len(clocks))
	for i, clock := range clocks {
		messages[i] = Message{ID: fmt.Sprintf("m%d", i), Time: at(clock)}
	}
	return messages
}

// Notifications returns six notifications, n0..n5, in time order.
func Notifications() []Notification {
	clocks := []string{"05:40:51", "14:50:43", "15:31:53", "16:59:48", "18:08:59", "21:21:57"}
	notifications := make([]Notification, len(clocks))
	for i, clock := range clocks {
		notifications[i] = Notification{ID: fmt.Sprintf("n%d", i), Time: at(clock)}
	}
	return notifications
}

// ByTime orders a message before a notification if it is older.
func ByTime(m Message, n Notification) signalvec.Ordering {
	switch {
	case m.Time.Before(n.Time):
		return signalvec.Less
	case m.Time.After(n.Time):
		return signalvec.Greater
	}
	return signalvec.Equal
}

// IDs lists the item ids of a merged timeline.
func IDs(items []signalvec.MergedItem[Message, Notification]) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		if item.IsLeft() {
			ids[i] = item.Left().ID
		} else {
			ids[i] = item.Right().ID
		}
	}
	return ids
}
