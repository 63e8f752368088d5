package repository

import (
	"context"
	"time"

	"owner_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messageCollection = "chat_messages"

type mongoMessageStore struct {
	coll  *mongo.Collection
	stamp *stamper
}

// NewMongoMessageStore create a MessageStore on the chat_messages collection
func NewMongoMessageStore(db *mongo.Database) MessageStore {
	return &mongoMessageStore{
		coll:  db.Collection(messageCollection),
		stamp: newStamper(),
	}
}

// EnsureIndexes creates the conversation and inbox indexes, safe to repeat
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(messageCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "read", Value: 1}}},
	})
	if err != nil {
		return storeErr("ensure indexes", err)
	}
	return nil
}

func (r *mongoMessageStore) Insert(ctx context.Context, msg domain.Message) (domain.Message, error) {
	defer observe("insert", time.Now())

	msg, err := r.stamp.stamp(msg)
	if err != nil {
		return domain.Message{}, storeErr("insert", err)
	}
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return domain.Message{}, storeErr("insert", err)
	}
	return msg, nil
}

func conversationFilter(userA, userB string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender_id": userA, "receiver_id": userB},
		bson.M{"sender_id": userB, "receiver_id": userA},
	}}
}

func (r *mongoMessageStore) Query(ctx context.Context, userA, userB string, page, pageSize int) ([]domain.Message, int64, error) {
	if err := checkPaging(page, pageSize); err != nil {
		return nil, 0, err
	}
	defer observe("query", time.Now())

	filter := conversationFilter(userA, userB)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, storeErr("query count", err)
	}
	skip, ok := pageOffset(page, pageSize)
	if !ok || int64(skip) >= total {
		return []domain.Message{}, total, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(pageSize))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, storeErr("query find", err)
	}
	defer cur.Close(ctx)

	messages := make([]domain.Message, 0, pageSize)
	if err := cur.All(ctx, &messages); err != nil {
		return nil, 0, storeErr("query decode", err)
	}
	return messages, total, nil
}

func (r *mongoMessageStore) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	defer observe("mark_read", time.Now())

	filter := bson.M{"sender_id": senderID, "receiver_id": receiverID, "read": false}
	res, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, storeErr("mark read", err)
	}
	return res.ModifiedCount, nil
}

// DistinctCorrespondents 取得每個寄件者最後一則訊息
func (r *mongoMessageStore) DistinctCorrespondents(ctx context.Context, ownerID string) ([]domain.ChatUserSummary, error) {
	defer observe("correspondents", time.Now())

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "receiver_id", Value: ownerID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$sender_id"},
			{Key: "name", Value: bson.D{{Key: "$first", Value: "$sender_name"}}},
			{Key: "avatar", Value: bson.D{{Key: "$first", Value: "$sender_avatar"}}},
			{Key: "lastMessage", Value: bson.D{{Key: "$first", Value: "$content"}}},
			{Key: "lastAt", Value: bson.D{{Key: "$first", Value: "$created_at"}}},
			{Key: "lastID", Value: bson.D{{Key: "$first", Value: "$_id"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastAt", Value: -1}, {Key: "lastID", Value: -1}}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, storeErr("correspondents aggregate", err)
	}
	defer cur.Close(ctx)

	users := make([]domain.ChatUserSummary, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, storeErr("correspondents decode", err)
	}
	return users, nil
}
