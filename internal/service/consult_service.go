package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/constant"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/dto"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/mapper"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/pkg/apperror"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/pkg/logger"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/repository/session"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/consult/router"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/events"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

type IConsultService interface {
	// Consult creates or continues a session. It never blocks on model
	// latency: generation work is dispatched and the caller polls Status.
	Consult(ctx context.Context, req *dto.ConsultRequest) (*dto.ConsultResponse, error)

	// Decide answers the confirmation gate. Valid only while the session is
	// waiting for confirmation.
	Decide(ctx context.Context, req *dto.DecisionRequest) (*dto.DecisionResponse, error)

	// Status derives the polling status purely from session state.
	Status(ctx context.Context, sessionID string) (*dto.StatusResponse, error)

	// Inspect returns raw session state for support tooling.
	Inspect(ctx context.Context, sessionID string) (*dto.SessionInspectResponse, error)
}

type consultService struct {
	sessions   session.Store
	router     *router.Router
	dispatcher IDispatchService
	eventBus   EventPublisher
	mapper     *mapper.ConsultMapper
	logger     logger.ILogger
}

func NewConsultService(
	sessions session.Store,
	phaseRouter *router.Router,
	dispatcher IDispatchService,
	eventBus EventPublisher,
	log logger.ILogger,
) IConsultService {
	return &consultService{
		sessions:   sessions,
		router:     phaseRouter,
		dispatcher: dispatcher,
		eventBus:   eventBus,
		mapper:     mapper.NewConsultMapper(),
		logger:     log,
	}
}

func (cs *consultService) Consult(ctx context.Context, req *dto.ConsultRequest) (*dto.ConsultResponse, error) {
	question := combineQuestion(req.Question, req.SelectedFollowUpQuestions)

	sess, isFollowUp, _, err := cs.sessions.GetOrCreate(ctx, req.SessionId, question, req.ResetSession)
	if err != nil {
		if errors.Is(err, session.ErrUnknownSession) {
			return nil, apperror.NotFound("unknown session id")
		}
		return nil, apperror.Internal("failed to load session", err)
	}

	// Sticky routing: a follow-up inside the window re-enters the
	// specialist round directly, skipping triage and the confirmation gate.
	if isFollowUp && cs.router.StickyActive(sess, req.ResetSession) {
		cs.router.ApplySticky(sess, question)
		if err := cs.sessions.Save(ctx, sess); err != nil {
			return nil, apperror.Internal("failed to persist session", err)
		}

		handle, err := cs.dispatcher.Dispatch(ctx, &dto.ConsultRoundMessage{
			SessionId: sess.ID,
			Kind:      constant.TaskKindSpecialist,
			Question:  question,
			Context:   req.Context,
		})
		if err != nil {
			return nil, err
		}

		cs.logger.Info("consult", "sticky follow-up dispatched to specialist", map[string]interface{}{
			"session_id": sess.ID,
		})
		return &dto.ConsultResponse{
			SessionId:  sess.ID,
			TaskHandle: handle.ID,
			UiAction:   constant.UIActionAsyncProcessing,
		}, nil
	}

	switch cs.router.Decide(sess, req.UserConfirmed) {
	case router.ActionDispatchSpecialist:
		if !cs.router.Confirm(sess) {
			return nil, apperror.Conflict("session cannot enter the specialist round from its current phase")
		}
		if err := cs.sessions.Save(ctx, sess); err != nil {
			return nil, apperror.Internal("failed to persist session", err)
		}

		handle, err := cs.dispatcher.Dispatch(ctx, &dto.ConsultRoundMessage{
			SessionId: sess.ID,
			Kind:      constant.TaskKindSpecialist,
			Question:  sess.LastQuestion,
			Context:   req.Context,
		})
		if err != nil {
			return nil, err
		}
		return &dto.ConsultResponse{
			SessionId:  sess.ID,
			TaskHandle: handle.ID,
			UiAction:   constant.UIActionAsyncProcessing,
		}, nil

	case router.ActionAwaitConfirmation:
		// Classification already exists; nothing to dispatch until the
		// user answers the gate.
		return &dto.ConsultResponse{
			SessionId: sess.ID,
			UiAction:  constant.UIActionShowConfirmation,
		}, nil

	default: // router.ActionDispatchTriage
		created := sess.Phase == store.PhaseInitial && !isFollowUp
		if !cs.router.BeginTriage(sess, question) {
			return nil, apperror.Conflict("session is closed; reset to start over")
		}
		if err := cs.sessions.Save(ctx, sess); err != nil {
			return nil, apperror.Internal("failed to persist session", err)
		}

		handle, err := cs.dispatcher.Dispatch(ctx, &dto.ConsultRoundMessage{
			SessionId: sess.ID,
			Kind:      constant.TaskKindTriage,
			Question:  question,
			Context:   req.Context,
		})
		if err != nil {
			// The session stays initialized so the client can retry the
			// same id once the queue recovers.
			return nil, err
		}

		if created {
			cs.publishEvent(ctx, events.NewSessionCreated(sess.ID))
		}
		return &dto.ConsultResponse{
			SessionId:  sess.ID,
			TaskHandle: handle.ID,
			UiAction:   constant.UIActionShowConfirmation,
		}, nil
	}
}

func (cs *consultService) Decide(ctx context.Context, req *dto.DecisionRequest) (*dto.DecisionResponse, error) {
	sess, err := cs.sessions.Get(ctx, req.SessionId)
	if err != nil {
		return nil, apperror.Internal("failed to load session", err)
	}
	if sess == nil {
		return nil, apperror.NotFound("unknown session id")
	}

	if sess.Phase != store.PhaseWaitingConfirmation {
		// Client error; the session is left unmodified.
		return nil, apperror.Conflict("decision is only valid while waiting for confirmation")
	}

	switch req.Action {
	case constant.DecisionActionConfirm:
		if !cs.router.Confirm(sess) {
			return nil, apperror.Conflict("session cannot enter the specialist round from its current phase")
		}
		if len(req.SelectedQuestions) > 0 {
			sess.LastQuestion = combineQuestion(sess.LastQuestion, req.SelectedQuestions)
		}
		if err := cs.sessions.Save(ctx, sess); err != nil {
			return nil, apperror.Internal("failed to persist session", err)
		}

		handle, err := cs.dispatcher.Dispatch(ctx, &dto.ConsultRoundMessage{
			SessionId: sess.ID,
			Kind:      constant.TaskKindSpecialist,
			Question:  sess.LastQuestion,
		})
		if err != nil {
			return nil, err
		}
		return &dto.DecisionResponse{
			SessionId:  sess.ID,
			Phase:      string(sess.Phase),
			TaskHandle: handle.ID,
		}, nil

	case constant.DecisionActionCancel:
		if !cs.router.Cancel(sess) {
			return nil, apperror.Conflict("session is already closed")
		}
		if err := cs.sessions.Save(ctx, sess); err != nil {
			return nil, apperror.Internal("failed to persist session", err)
		}
		cs.publishEvent(ctx, events.NewSessionCancelled(sess.ID))
		return &dto.DecisionResponse{
			SessionId: sess.ID,
			Phase:     string(sess.Phase),
		}, nil

	default:
		return nil, apperror.BadRequest("invalid decision action")
	}
}

func (cs *consultService) Status(ctx context.Context, sessionID string) (*dto.StatusResponse, error) {
	sess, err := cs.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, apperror.Internal("failed to load session", err)
	}
	if sess == nil {
		return nil, apperror.NotFound("unknown session id")
	}

	resp := &dto.StatusResponse{SessionId: sess.ID}

	switch {
	case sess.Phase == store.PhaseInitial:
		resp.Status = constant.StatusProcessing

	case sess.Phase == store.PhaseAssistant && sess.Decision == store.DecisionCancelled:
		resp.Status = constant.StatusCancelled

	case sess.Phase == store.PhaseAssistant:
		// Triage round in flight.
		resp.Status = constant.StatusProcessing

	case sess.Phase == store.PhaseWaitingConfirmation && sess.Decision != store.DecisionCancelled:
		resp.Status = constant.StatusWaitingConfirmation
		resp.Classification = cs.mapper.ToClassificationDTO(sess.Classification)

	case (sess.Phase == store.PhaseSpecialist || sess.Phase == store.PhaseCompleted) && sess.SpecialistOutput != nil:
		resp.Status = constant.StatusCompleted
		resp.Result = cs.mapper.ToSpecialistOutputDTO(sess.SpecialistOutput)

	case sess.Phase == store.PhaseSpecialist:
		// Specialist round in flight.
		resp.Status = constant.StatusProcessing

	case sess.Phase == store.PhaseCancelled || sess.Phase == store.PhaseArchived:
		resp.Status = constant.StatusCancelled

	default:
		resp.Status = constant.StatusUnknown
	}

	return resp, nil
}

func (cs *consultService) Inspect(ctx context.Context, sessionID string) (*dto.SessionInspectResponse, error) {
	sess, err := cs.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, apperror.Internal("failed to load session", err)
	}
	if sess == nil {
		return nil, apperror.NotFound("unknown session id")
	}
	return cs.mapper.ToInspectResponse(sess), nil
}

func (cs *consultService) publishEvent(ctx context.Context, event events.Event) {
	if cs.eventBus == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := cs.eventBus.Publish(pubCtx, event); err != nil {
		cs.logger.Warn("consult", "failed to publish domain event", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
}

// combineQuestion appends the follow-up questions the user selected from the
// triage suggestions to the free-form question.
func combineQuestion(question string, selected []string) string {
	if len(selected) == 0 {
		return question
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\n用户选择的追问:")
	for _, q := range selected {
		b.WriteString("\n- ")
		b.WriteString(strings.TrimSpace(q))
	}
	return b.String()
}
