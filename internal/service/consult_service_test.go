package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/constant"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/dto"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/pkg/apperror"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/repository/session"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/cache"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/consult/router"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/extract"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/llm"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/retrieval"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

const (
	triageReply = `{"primary_type": "labor_dispute", "specialist_role": "劳动法专家", "confidence": 0.9,
  "relevant_laws": ["劳动合同法"], "suggested_questions": ["是否签订了书面合同？"]}`

	specialistReply = `一、直接回答
可以主张违法解除赔偿金。

二、法律分析
根据劳动合同法第八十七条，违法解除应支付二倍经济补偿。

三、行动建议
先协商，协商不成申请劳动仲裁。

四、风险提示
注意一年的仲裁时效。

五、后续步骤
1. 收集劳动合同和工资记录
2. 提交仲裁申请

六、相关法条
- 劳动合同法第四十七条
- 劳动合同法第八十七条

{"follow_up_questions": ["经济补偿基数如何确定？"]}`
)

// scriptedProvider returns the triage reply for triage prompts and the
// specialist reply otherwise, recording every prompt it sees.
type scriptedProvider struct {
	mu      sync.Mutex
	prompts []string
	err     error
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, _ ...llm.Option) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	if p.err != nil {
		return "", p.err
	}
	if strings.Contains(prompt, "分诊") {
		return triageReply, nil
	}
	return specialistReply, nil
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return p.Generate(ctx, history[len(history)-1].Content, opts...)
}

func (p *scriptedProvider) triageCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, prompt := range p.prompts {
		if strings.Contains(prompt, "分诊") {
			n++
		}
	}
	return n
}

type staticStore struct {
	name  string
	items []store.KnowledgeItem
}

func (s *staticStore) Name() string      { return s.name }
func (s *staticStore) Priority() int     { return 10 }
func (s *staticStore) IsAvailable() bool { return true }
func (s *staticStore) Search(ctx context.Context, query, domain string, limit int) ([]store.KnowledgeItem, error) {
	return s.items, nil
}

type testHarness struct {
	consult  IConsultService
	sessions session.Store
	provider *scriptedProvider
	router   *router.Router
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	sessions := session.NewMemoryStore(time.Hour)
	phaseRouter := router.NewRouter(30*time.Minute, nil)
	provider := &scriptedProvider{}
	log := &nopLogger{}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	corpusStore := &staticStore{
		name: "legal_corpus",
		items: []store.KnowledgeItem{
			{ID: "law-87", Title: "劳动合同法第八十七条", Content: "违法解除劳动合同的赔偿", SourceStore: "legal_corpus", RelevanceScore: 0.9},
		},
	}
	aggregator := retrieval.NewAggregator(
		[]knowledge.Store{corpusStore},
		nil,
		cache.NewMemoryCache(time.Hour),
		nil,
	)

	dispatcher := NewDispatchService(pubSub, constant.ConsultTopicName, log)
	worker := NewWorkerService(
		pubSub,
		constant.ConsultTopicName,
		sessions,
		phaseRouter,
		provider,
		extract.NewExtractor(nil),
		aggregator,
		nil,
		[]string{"legal_corpus"},
		0,
		nil,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, worker.Consume(ctx))

	return &testHarness{
		consult:  NewConsultService(sessions, phaseRouter, dispatcher, nil, log),
		sessions: sessions,
		provider: provider,
		router:   phaseRouter,
	}
}

func (h *testHarness) waitForStatus(t *testing.T, sessionID, want string) *dto.StatusResponse {
	t.Helper()
	var last *dto.StatusResponse
	require.Eventually(t, func() bool {
		resp, err := h.consult.Status(context.Background(), sessionID)
		if err != nil {
			return false
		}
		last = resp
		return resp.Status == want
	}, 3*time.Second, 10*time.Millisecond, "status never reached %q (last: %+v)", want, last)
	return last
}

func TestConsultScenarioNewSessionStopsAtConfirmation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp, err := h.consult.Consult(ctx, &dto.ConsultRequest{Question: "我被公司违法辞退了怎么办"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionId)
	assert.NotEmpty(t, resp.TaskHandle)
	assert.Equal(t, constant.UIActionShowConfirmation, resp.UiAction)

	status := h.waitForStatus(t, resp.SessionId, constant.StatusWaitingConfirmation)
	require.NotNil(t, status.Classification)
	assert.Equal(t, "labor_dispute", status.Classification.PrimaryType)
	assert.Equal(t, "劳动法专家", status.Classification.SpecialistRole)
	assert.Nil(t, status.Result, "specialist output must be absent before confirmation")
}

func TestConsultScenarioConfirmedRunsSpecialist(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.consult.Consult(ctx, &dto.ConsultRequest{Question: "我被公司违法辞退了怎么办"})
	require.NoError(t, err)
	h.waitForStatus(t, first.SessionId, constant.StatusWaitingConfirmation)

	second, err := h.consult.Consult(ctx, &dto.ConsultRequest{
		SessionId:     first.SessionId,
		Question:      "我被公司违法辞退了怎么办",
		UserConfirmed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, constant.UIActionAsyncProcessing, second.UiAction)

	status := h.waitForStatus(t, first.SessionId, constant.StatusCompleted)
	require.NotNil(t, status.Result)
	assert.Contains(t, status.Result.Analysis, "第八十七条")
	assert.NotEmpty(t, status.Result.ActionSteps)
	// labor_dispute is a mandatory retrieval domain, so the round must
	// have used the corpus.
	assert.True(t, status.Result.RagTriggered)
	assert.Contains(t, status.Result.RagSources, "legal_corpus")
}

func TestConsultScenarioStickyFollowUpSkipsTriage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.consult.Consult(ctx, &dto.ConsultRequest{Question: "我被公司违法辞退了怎么办"})
	require.NoError(t, err)
	h.waitForStatus(t, first.SessionId, constant.StatusWaitingConfirmation)

	_, err = h.consult.Consult(ctx, &dto.ConsultRequest{
		SessionId:     first.SessionId,
		Question:      "我被公司违法辞退了怎么办",
		UserConfirmed: true,
	})
	require.NoError(t, err)
	h.waitForStatus(t, first.SessionId, constant.StatusCompleted)

	triageBefore := h.provider.triageCalls()

	followUp, err := h.consult.Consult(ctx, &dto.ConsultRequest{
		SessionId: first.SessionId,
		Question:  "如果公司只愿意给一倍补偿呢",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.UIActionAsyncProcessing, followUp.UiAction, "sticky follow-up must go straight to the specialist")

	status := h.waitForStatus(t, first.SessionId, constant.StatusCompleted)
	require.NotNil(t, status.Result)

	assert.Equal(t, triageBefore, h.provider.triageCalls(), "sticky routing must not run a new triage round")

	sess, err := h.sessions.Get(ctx, first.SessionId)
	require.NoError(t, err)
	require.NotNil(t, sess.Classification)
	assert.Equal(t, "labor_dispute", sess.Classification.PrimaryType, "classification survives the sticky re-entry")
}

func TestConsultScenarioExpiredWindowRunsFreshTriage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.consult.Consult(ctx, &dto.ConsultRequest{Question: "我被公司违法辞退了怎么办"})
	require.NoError(t, err)
	h.waitForStatus(t, first.SessionId, constant.StatusWaitingConfirmation)

	_, err = h.consult.Consult(ctx, &dto.ConsultRequest{
		SessionId:     first.SessionId,
		Question:      "我被公司违法辞退了怎么办",
		UserConfirmed: true,
	})
	require.NoError(t, err)
	h.waitForStatus(t, first.SessionId, constant.StatusCompleted)

	// Age the session past the sticky window.
	sess, err := h.sessions.Get(ctx, first.SessionId)
	require.NoError(t, err)
	sess.UpdatedAt = time.Now().Add(-40 * time.Minute)
	require.NoError(t, h.sessions.Save(ctx, sess))

	triageBefore := h.provider.triageCalls()

	followUp, err := h.consult.Consult(ctx, &dto.ConsultRequest{
		SessionId: first.SessionId,
		Question:  "还有一个新问题",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.UIActionShowConfirmation, followUp.UiAction, "expired window means a fresh triage round")

	h.waitForStatus(t, first.SessionId, constant.StatusWaitingConfirmation)
	assert.Equal(t, triageBefore+1, h.provider.triageCalls())
}

func TestConsultScenarioCancelThenConfirmRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.consult.Consult(ctx, &dto.ConsultRequest{Question: "我被公司违法辞退了怎么办"})
	require.NoError(t, err)
	h.waitForStatus(t, first.SessionId, constant.StatusWaitingConfirmation)

	cancelResp, err := h.consult.Decide(ctx, &dto.DecisionRequest{
		SessionId: first.SessionId,
		Action:    constant.DecisionActionCancel,
	})
	require.NoError(t, err)
	assert.Equal(t, string(store.PhaseCancelled), cancelResp.Phase)

	status, err := h.consult.Status(ctx, first.SessionId)
	require.NoError(t, err)
	assert.Equal(t, constant.StatusCancelled, status.Status)

	_, err = h.consult.Decide(ctx, &dto.DecisionRequest{
		SessionId: first.SessionId,
		Action:    constant.DecisionActionConfirm,
	})
	require.Error(t, err)
	appErr := apperror.From(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 409, appErr.Code, "confirm after cancel is a client error")

	// A new question on the cancelled session is also refused; the client
	// must reset to start over.
	_, err = h.consult.Consult(ctx, &dto.ConsultRequest{
		SessionId: first.SessionId,
		Question:  "换一个问题",
	})
	require.Error(t, err)
	appErr = apperror.From(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 409, appErr.Code)

	// With an explicit reset the same id starts a fresh round.
	reset, err := h.consult.Consult(ctx, &dto.ConsultRequest{
		SessionId:    first.SessionId,
		Question:     "换一个问题",
		ResetSession: true,
	})
	require.NoError(t, err)
	assert.Equal(t, first.SessionId, reset.SessionId)
	h.waitForStatus(t, first.SessionId, constant.StatusWaitingConfirmation)
}

func TestDecideConfirmDispatchesSpecialist(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.consult.Consult(ctx, &dto.ConsultRequest{Question: "我被公司违法辞退了怎么办"})
	require.NoError(t, err)
	h.waitForStatus(t, first.SessionId, constant.StatusWaitingConfirmation)

	resp, err := h.consult.Decide(ctx, &dto.DecisionRequest{
		SessionId:         first.SessionId,
		Action:            constant.DecisionActionConfirm,
		SelectedQuestions: []string{"是否签订了书面合同？"},
	})
	require.NoError(t, err)
	assert.Equal(t, string(store.PhaseSpecialist), resp.Phase)
	assert.NotEmpty(t, resp.TaskHandle)

	h.waitForStatus(t, first.SessionId, constant.StatusCompleted)
}

func TestConsultUnknownSessionIsNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.consult.Consult(context.Background(), &dto.ConsultRequest{
		SessionId: "no-such-session",
		Question:  "我被公司违法辞退了怎么办",
	})
	require.Error(t, err)
	appErr := apperror.From(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 404, appErr.Code, "a client cannot continue a session that was never created")
}

func TestDecideUnknownSessionIsNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.consult.Decide(context.Background(), &dto.DecisionRequest{
		SessionId: "no-such-session",
		Action:    constant.DecisionActionConfirm,
	})
	require.Error(t, err)
	appErr := apperror.From(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 404, appErr.Code)
}

type failingPublisher struct{}

func (failingPublisher) Publish(topic string, messages ...*message.Message) error {
	return errors.New("queue unreachable")
}

func TestConsultQueueFailureSurfacesButKeepsSession(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore(time.Hour)
	consult := NewConsultService(
		sessions,
		router.NewRouter(30*time.Minute, nil),
		NewDispatchService(failingPublisher{}, constant.ConsultTopicName, &nopLogger{}),
		nil,
		&nopLogger{},
	)

	now := time.Now()
	require.NoError(t, sessions.Save(ctx, &store.Session{
		ID:        "retry-session",
		Phase:     store.PhaseInitial,
		Decision:  store.DecisionNone,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	_, err := consult.Consult(ctx, &dto.ConsultRequest{SessionId: "retry-session", Question: "问题"})
	require.Error(t, err)
	appErr := apperror.From(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 500, appErr.Code)

	// The session survives the queue failure in the triage phase, so the
	// client can retry the same id once the queue recovers.
	kept, err := sessions.Get(ctx, "retry-session")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, store.PhaseAssistant, kept.Phase)
	assert.Equal(t, "问题", kept.LastQuestion)
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }
