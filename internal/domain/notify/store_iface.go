package notify

import "context"

type StoreAPI interface {
	CreateNotice(ctx context.Context, n Notice) error
	ListNotices(ctx context.Context, recipientID string, limit, offset int) ([]Notice, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, recipientID, noticeID string) error
}
