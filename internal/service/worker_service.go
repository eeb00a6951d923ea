package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/constant"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/dto"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/pkg/logger"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/repository/session"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/consult/router"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/events"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/extract"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/llm"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/retrieval"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/retrieval/trigger"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/synclock"
)

// EventPublisher is satisfied by the NATS publisher. It is optional; a nil
// publisher disables domain events without touching the flow.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IWorkerService interface {
	Consume(ctx context.Context) error
}

// workerService executes consultation rounds off the synchronous path. It is
// the only writer of session state besides the orchestrator; a per-session
// lock keeps two rounds from racing on the same id.
type workerService struct {
	pubSub        *gochannel.GoChannel
	topicName     string
	sessions      session.Store
	router        *router.Router
	llmProvider   llm.Provider
	extractor     *extract.Extractor
	aggregator    *retrieval.Aggregator
	categories    map[string]trigger.CategoryConfig
	enabledStores []string
	retrieveLimit int
	locks         *synclock.KeyedMutex
	eventBus      EventPublisher
	logger        logger.ILogger
}

func NewWorkerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	sessions session.Store,
	phaseRouter *router.Router,
	llmProvider llm.Provider,
	extractor *extract.Extractor,
	aggregator *retrieval.Aggregator,
	categories map[string]trigger.CategoryConfig,
	enabledStores []string,
	retrieveLimit int,
	eventBus EventPublisher,
	log logger.ILogger,
) IWorkerService {
	if retrieveLimit <= 0 {
		retrieveLimit = constant.DefaultRetrieveLimit
	}
	return &workerService{
		pubSub:        pubSub,
		topicName:     topicName,
		sessions:      sessions,
		router:        phaseRouter,
		llmProvider:   llmProvider,
		extractor:     extractor,
		aggregator:    aggregator,
		categories:    categories,
		enabledStores: enabledStores,
		retrieveLimit: retrieveLimit,
		locks:         synclock.NewKeyedMutex(),
		eventBus:      eventBus,
		logger:        log,
	}
}

func (ws *workerService) Consume(ctx context.Context) error {
	messages, err := ws.pubSub.Subscribe(ctx, ws.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ws.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (ws *workerService) processMessage(ctx context.Context, msg *message.Message) {
	var round dto.ConsultRoundMessage
	if err := json.Unmarshal(msg.Payload, &round); err != nil {
		ws.logger.Error("worker", "failed to unmarshal round payload", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed payloads would loop forever on Nack
		return
	}

	// Serialize rounds per session. A new round must observe the previous
	// round's state write, never a half-finished one.
	ws.locks.Lock(round.SessionId)
	defer ws.locks.Unlock(round.SessionId)

	sess, err := ws.sessions.Get(ctx, round.SessionId)
	if err != nil {
		ws.logger.Error("worker", "failed to load session", map[string]interface{}{
			"session_id": round.SessionId,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}
	if sess == nil {
		ws.logger.Warn("worker", "round for unknown session dropped", map[string]interface{}{
			"session_id": round.SessionId,
		})
		msg.Ack() // session expired or reset, nothing to apply the result to
		return
	}

	switch round.Kind {
	case constant.TaskKindTriage:
		err = ws.runTriage(ctx, sess, &round)
	case constant.TaskKindSpecialist:
		err = ws.runSpecialist(ctx, sess, &round)
	default:
		ws.logger.Warn("worker", "unknown round kind dropped", map[string]interface{}{
			"kind": round.Kind,
		})
		msg.Ack()
		return
	}

	if err != nil {
		msg.Nack()
		return
	}
	msg.Ack()
}

func (ws *workerService) runTriage(ctx context.Context, sess *store.Session, round *dto.ConsultRoundMessage) error {
	prompt := fmt.Sprintf(constant.TriagePromptV2, round.Question, orDefault(round.Context, "（无）"))

	raw, err := ws.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		ws.logger.Error("worker", "triage completion failed", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		return err
	}

	// Parse failure degrades to a default classification inside the
	// extractor; the round never aborts on bad model output.
	classification := ws.extractor.Classification(raw)

	if !ws.router.CompleteTriage(sess, classification) {
		// The session left the triage round while the model call was in
		// flight; the result is stale and gets dropped.
		ws.logger.Warn("worker", "dropping stale triage result", map[string]interface{}{
			"session_id": sess.ID,
			"phase":      string(sess.Phase),
		})
		return nil
	}
	if err := ws.sessions.Save(ctx, sess); err != nil {
		ws.logger.Error("worker", "failed to persist triage result", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		return err
	}

	ws.publishEvent(ctx, events.NewTriageCompleted(sess.ID, classification.PrimaryType, classification.SpecialistRole, classification.Confidence))

	ws.logger.Info("worker", "triage round completed", map[string]interface{}{
		"session_id":   sess.ID,
		"primary_type": classification.PrimaryType,
		"confidence":   classification.Confidence,
	})
	return nil
}

func (ws *workerService) runSpecialist(ctx context.Context, sess *store.Session, round *dto.ConsultRoundMessage) error {
	classification := sess.Classification
	if classification == nil {
		// Sticky re-entry on a session whose triage never finished; fall
		// back to the generalist persona rather than failing the round.
		classification = &store.Classification{
			PrimaryType:    "general_consultation",
			SpecialistRole: "综合法律顾问",
		}
	}

	shouldRetrieve, strategy := trigger.Evaluate(round.Question, classification.PrimaryType, ws.categories)

	var items []store.KnowledgeItem
	if shouldRetrieve && ws.aggregator != nil {
		var err error
		items, err = ws.aggregator.Search(ctx, round.Question, classification.PrimaryType, ws.retrieveLimit, ws.enabledStores)
		if err != nil {
			// Retrieval failure is recoverable: answer without references.
			ws.logger.Warn("worker", "retrieval failed, answering without references", map[string]interface{}{
				"session_id": sess.ID,
				"strategy":   string(strategy),
				"error":      err.Error(),
			})
			items = nil
		}
	}

	prompt := fmt.Sprintf(constant.SpecialistPromptV2,
		classification.SpecialistRole,
		round.Question,
		orDefault(round.Context, "（无）"),
		referenceBlock(items),
	)

	raw, err := ws.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.4))
	if err != nil {
		ws.logger.Error("worker", "specialist completion failed", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		return err
	}

	result := ws.extractor.Extract(raw)

	output := &store.SpecialistOutput{
		Analysis:     result.Analysis,
		Advice:       result.Advice,
		RiskWarning:  result.RiskWarning,
		ActionSteps:  result.ActionSteps,
		RelevantLaws: result.RelevantLaws,
		RagTriggered: shouldRetrieve && len(items) > 0,
		RagSources:   sourceNames(items),
	}
	if output.Analysis == "" && result.DirectAnswer != "" {
		output.Analysis = result.DirectAnswer
	}

	// Reload before writing: the session may have been cancelled while the
	// model was generating, and the lock was held the whole time only
	// against other rounds, not against the decision endpoint.
	current, err := ws.sessions.Get(ctx, sess.ID)
	if err != nil {
		return err
	}
	if current == nil {
		ws.logger.Warn("worker", "session vanished mid-round, result dropped", map[string]interface{}{
			"session_id": sess.ID,
		})
		return nil
	}

	if !ws.router.CompleteSpecialist(current, output) {
		ws.logger.Info("worker", "late specialist result dropped", map[string]interface{}{
			"session_id": sess.ID,
			"phase":      string(current.Phase),
		})
		return nil
	}

	if err := ws.sessions.Save(ctx, current); err != nil {
		ws.logger.Error("worker", "failed to persist specialist result", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		return err
	}

	ws.publishEvent(ctx, events.NewSpecialistCompleted(sess.ID, output.RagTriggered, len(items)))

	ws.logger.Info("worker", "specialist round completed", map[string]interface{}{
		"session_id":    sess.ID,
		"rag_triggered": output.RagTriggered,
		"sources":       output.RagSources,
		"degraded":      result.Degraded,
	})
	return nil
}

func (ws *workerService) publishEvent(ctx context.Context, event events.Event) {
	if ws.eventBus == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := ws.eventBus.Publish(pubCtx, event); err != nil {
		ws.logger.Warn("worker", "failed to publish domain event", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
}

// referenceBlock renders retrieved items for prompt injection.
func referenceBlock(items []store.KnowledgeItem) string {
	if len(items) == 0 {
		return constant.NoReferenceBlock
	}

	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "[%d] %s（来源: %s）\n%s\n\n", i+1, item.Title, item.SourceStore, item.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func sourceNames(items []store.KnowledgeItem) []string {
	seen := make(map[string]bool, len(items))
	var names []string
	for _, item := range items {
		if !seen[item.SourceStore] {
			seen[item.SourceStore] = true
			names = append(names, item.SourceStore)
		}
	}
	return names
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
