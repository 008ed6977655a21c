package realtime

import (
	"sort"

	"github.com/kendall-kelly/studentbridge-api/models"
)

// sortMessages orders by (created_at, id)
func sortMessages(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Less(msgs[j])
	})
}

func indexOf(msgs []models.Message, id string) int {
	for i := range msgs {
		if msgs[i].ID == id {
			return i
		}
	}
	return -1
}

// mergeInsert adds msg unless a message with the same id is already present.
// A redelivered insert can still carry a newer read flag, which is kept.
func mergeInsert(state []models.Message, msg models.Message) ([]models.Message, bool) {
	if i := indexOf(state, msg.ID); i >= 0 {
		return state, patchRead(state, i, msg.IsRead)
	}
	state = append(state, msg)
	sortMessages(state)
	return state, true
}

// patchRead is monotonic: a message never goes back to unread
func patchRead(state []models.Message, i int, isRead bool) bool {
	if !isRead || state[i].IsRead {
		return false
	}
	state[i].IsRead = true
	return true
}
