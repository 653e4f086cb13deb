package store

import (
	"vitaai.com/prontuario/redis"
	"vitaai.com/prontuario/utils/maps"
	"context"
	"fmt"
)

type documentStore interface {
	GetPartialDocument(ctx context.Context, redisKey string, doc maps.PartialDocument) error
	UpdatePartialDocument(ctx context.Context, redisKey string, doc maps.PartialDocument, create bool, updateFunc interface{}) error
	Lock(ctx context.Context, redisKey string) (redis.ReleaseLock, error)
	SaveDoc(ctx context.Context, redisKey string, doc maps.PartialDocument) error
	Close() error
}

type Client struct {
	Records  Records
	Timeline Timeline
}

// NewClient is a preferred way for working with stored records and timeline entries
func NewClient() (Client, error) {
	recordsRedisClient, err := redis.NewClient(RecordsDB)
	if err != nil {
		return Client{}, err
	}
	timelineRedisClient, err := redis.NewClient(TimelineDB)
	if err != nil {
		_ = recordsRedisClient.Close()
		return Client{}, err
	}
	return Client{
		Records:  Records{client: &recordsRedisClient},
		Timeline: Timeline{client: &timelineRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Records.client.Close()
	_ = client.Timeline.client.Close()
}

func recordKey(id int64) string {
	return fmt.Sprintf("record:%d", id)
}

func timelineKey(recordID int64) string {
	return fmt.Sprintf("timeline:%d", recordID)
}

func cardKey(recordID int64) string {
	return fmt.Sprintf("%s-card", timelineKey(recordID))
}
