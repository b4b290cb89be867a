package notify

import "context"

// Notifier is the alert channel collaborator used by inventory alerting.
// Formatting and routing (chat webhook, pager, ops mailbox) live behind it.
type Notifier interface {
	Send(ctx context.Context, title, body string) error
}
