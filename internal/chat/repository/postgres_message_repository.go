package repository

import (
	"context"
	"time"

	"owner_chat_service/internal/chat/domain"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

type gormMessageStore struct {
	db    *gorm.DB
	stamp *stamper
}

// NewPostgresMessageStore create a MessageStore on the chat_messages table, migrating it first
func NewPostgresMessageStore(db *gorm.DB) (MessageStore, error) {
	if err := db.AutoMigrate(&domain.Message{}); err != nil {
		return nil, storeErr("auto migrate", err)
	}
	return &gormMessageStore{db: db, stamp: newStamper()}, nil
}

func (r *gormMessageStore) Insert(ctx context.Context, msg domain.Message) (domain.Message, error) {
	defer observe("insert", time.Now())

	msg, err := r.stamp.stamp(msg)
	if err != nil {
		return domain.Message{}, storeErr("insert", err)
	}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return domain.Message{}, storeErr("insert", err)
	}
	return msg, nil
}

func (r *gormMessageStore) conversation(ctx context.Context, userA, userB string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA)
}

func (r *gormMessageStore) Query(ctx context.Context, userA, userB string, page, pageSize int) ([]domain.Message, int64, error) {
	if err := checkPaging(page, pageSize); err != nil {
		return nil, 0, err
	}
	defer observe("query", time.Now())

	var total int64
	if err := r.conversation(ctx, userA, userB).Count(&total).Error; err != nil {
		return nil, 0, storeErr("query count", err)
	}
	skip, ok := pageOffset(page, pageSize)
	if !ok || int64(skip) >= total {
		return []domain.Message{}, total, nil
	}

	messages := make([]domain.Message, 0, pageSize)
	err := r.conversation(ctx, userA, userB).
		Order("created_at ASC").Order("id ASC").
		Offset(skip).
		Limit(pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, 0, storeErr("query find", err)
	}
	for i := range messages {
		messages[i].CreatedAt = messages[i].CreatedAt.UTC()
	}
	return messages, total, nil
}

func (r *gormMessageStore) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	defer observe("mark_read", time.Now())

	res := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, storeErr("mark read", res.Error)
	}
	return res.RowsAffected, nil
}

const correspondentsSQL = `
SELECT id, name, avatar, last_message, last_at FROM (
	SELECT DISTINCT ON (sender_id)
		sender_id AS id, sender_name AS name, sender_avatar AS avatar,
		content AS last_message, created_at AS last_at, id AS last_id
	FROM chat_messages
	WHERE receiver_id = ?
	ORDER BY sender_id, created_at DESC, id DESC
) latest
ORDER BY last_at DESC, last_id DESC`

type correspondentRow struct {
	ID          string
	Name        string
	Avatar      string
	LastMessage string
	LastAt      time.Time
}

func (r *gormMessageStore) DistinctCorrespondents(ctx context.Context, ownerID string) ([]domain.ChatUserSummary, error) {
	defer observe("correspondents", time.Now())

	var rows []correspondentRow
	if err := r.db.WithContext(ctx).Raw(correspondentsSQL, ownerID).Scan(&rows).Error; err != nil {
		return nil, storeErr("correspondents", err)
	}

	users := lo.Map(rows, func(row correspondentRow, _ int) domain.ChatUserSummary {
		return domain.ChatUserSummary{
			ID:          row.ID,
			Name:        row.Name,
			Avatar:      row.Avatar,
			LastMessage: row.LastMessage,
			LastAt:      row.LastAt.UTC(),
		}
	})
	return users, nil
}
