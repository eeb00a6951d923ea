package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/dto"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/pkg/apperror"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/pkg/logger"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

// Publisher is the queue side the dispatcher needs. *gochannel.GoChannel
// satisfies it; tests use an in-memory fake.
type Publisher interface {
	Publish(topic string, messages ...*message.Message) error
}

type IDispatchService interface {
	// Dispatch enqueues one consultation round and returns immediately.
	// The caller never blocks on model latency.
	Dispatch(ctx context.Context, round *dto.ConsultRoundMessage) (*store.TaskHandle, error)
}

type dispatchService struct {
	publisher Publisher
	topicName string
	logger    logger.ILogger
}

func NewDispatchService(publisher Publisher, topicName string, log logger.ILogger) IDispatchService {
	return &dispatchService{
		publisher: publisher,
		topicName: topicName,
		logger:    log,
	}
}

func (ds *dispatchService) Dispatch(ctx context.Context, round *dto.ConsultRoundMessage) (*store.TaskHandle, error) {
	if round.TaskId == "" {
		round.TaskId = uuid.NewString()
	}

	payload, err := json.Marshal(round)
	if err != nil {
		return nil, apperror.Internal("failed to encode task payload", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("session_id", round.SessionId)
	msg.Metadata.Set("kind", round.Kind)

	// Queue unavailability is the one infrastructure failure that reaches
	// the caller; the session stays initialized so the client can retry.
	if err := ds.publisher.Publish(ds.topicName, msg); err != nil {
		ds.logger.Error("dispatch", "failed to enqueue consultation round", map[string]interface{}{
			"session_id": round.SessionId,
			"kind":       round.Kind,
			"error":      err.Error(),
		})
		return nil, apperror.Internal("task queue unavailable", err)
	}

	ds.logger.Info("dispatch", "consultation round enqueued", map[string]interface{}{
		"session_id": round.SessionId,
		"task_id":    round.TaskId,
		"kind":       round.Kind,
	})

	return &store.TaskHandle{ID: round.TaskId, SessionID: round.SessionId}, nil
}
