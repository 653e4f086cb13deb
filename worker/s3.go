package worker

import (
	"vitaai.com/prontuario/s3client"
	"context"
)

type s3Transactions interface {
	saveTimelineSnapshot(task *Task) (string, error)
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

func (wrapper *s3ClientWrapper) saveTimelineSnapshot(task *Task) (string, error) {
	key := s3client.TimelineKey(task.message.RecordID)
	return key, wrapper.s3Client.UploadJSON(context.Background(), key, task.view)
}
