package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"bingo-service/internal/bingo"
	"bingo-service/internal/constants"

	"github.com/google/uuid"
)

const publishTimeout = 5 * time.Second

// LogNotifier writes every notice to the standard logger.
type LogNotifier struct {
	Prefix string
}

func (n LogNotifier) Notify(notice bingo.Notice) {
	log.Printf("%s[%s] %s: %s", n.Prefix, notice.Severity, notice.Title, notice.Description)
}

// Multi fans a notice out to every non-nil notifier in order.
func Multi(notifiers ...bingo.Notifier) bingo.Notifier {
	list := make([]bingo.Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			list = append(list, n)
		}
	}
	return bingo.NotifierFunc(func(notice bingo.Notice) {
		for _, n := range list {
			n.Notify(notice)
		}
	})
}

type Publisher interface {
	Publish(ctx context.Context, queueName, messageID string, body []byte) error
}

// Notification is the message consumed from the notifications.create queue.
type Notification struct {
	UserID  string `json:"user_id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Summaries keeps only the end-of-game notices.
func Summaries(n bingo.Notice) bool {
	return n.Severity == bingo.SeveritySuccess || n.Severity == bingo.SeverityInfo
}

// QueueNotifier forwards notices for one user to the notification queue.
// Publishing happens in the background and failures are only logged.
type QueueNotifier struct {
	publisher Publisher
	userID    string
	filter    func(bingo.Notice) bool
}

func NewQueueNotifier(publisher Publisher, userID string, filter func(bingo.Notice) bool) *QueueNotifier {
	if filter == nil {
		filter = Summaries
	}
	return &QueueNotifier{
		publisher: publisher,
		userID:    userID,
		filter:    filter,
	}
}

func (n *QueueNotifier) Notify(notice bingo.Notice) {
	if n.publisher == nil || !n.filter(notice) {
		return
	}

	body, err := json.Marshal(Notification{
		UserID:  n.userID,
		Type:    "bingo_" + string(notice.Severity),
		Title:   notice.Title,
		Content: notice.Description,
	})
	if err != nil {
		log.Printf("Failed to marshal notification: %v", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := n.publisher.Publish(ctx, constants.QueueNotifications, uuid.NewString(), body); err != nil {
			log.Printf("Failed to publish notification for user %s: %v", n.userID, err)
		}
	}()
}
