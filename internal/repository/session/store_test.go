package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

// runStoreContract exercises the semantics both backends must share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("create on unknown id", func(t *testing.T) {
		sess, isFollowUp, prev, err := s.GetOrCreate(ctx, "", "我被公司辞退了", false)
		require.NoError(t, err)
		assert.NotEmpty(t, sess.ID)
		assert.Equal(t, store.PhaseInitial, sess.Phase)
		assert.Equal(t, store.DecisionNone, sess.Decision)
		assert.False(t, isFollowUp)
		assert.Nil(t, prev)
		assert.Equal(t, "我被公司辞退了", sess.LastQuestion)
	})

	t.Run("existing initial session is not a follow-up", func(t *testing.T) {
		sess, _, _, err := s.GetOrCreate(ctx, "", "第一问", false)
		require.NoError(t, err)

		again, isFollowUp, _, err := s.GetOrCreate(ctx, sess.ID, "第二问", false)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, again.ID)
		assert.False(t, isFollowUp, "phase initial never counts as follow-up")
		assert.Equal(t, "第二问", again.LastQuestion)
	})

	t.Run("follow-up after phase advance", func(t *testing.T) {
		sess, _, _, err := s.GetOrCreate(ctx, "", "合同纠纷", false)
		require.NoError(t, err)

		sess.Phase = store.PhaseWaitingConfirmation
		sess.Classification = &store.Classification{PrimaryType: "contract_dispute", Confidence: 0.8}
		require.NoError(t, s.Save(ctx, sess))

		loaded, isFollowUp, _, err := s.GetOrCreate(ctx, sess.ID, "追问", false)
		require.NoError(t, err)
		assert.True(t, isFollowUp)
		require.NotNil(t, loaded.Classification)
		assert.Equal(t, "contract_dispute", loaded.Classification.PrimaryType)
	})

	t.Run("reset recreates under same id", func(t *testing.T) {
		sess, _, _, err := s.GetOrCreate(ctx, "", "劳动仲裁", false)
		require.NoError(t, err)

		sess.Phase = store.PhaseCompleted
		sess.SpecialistOutput = &store.SpecialistOutput{Analysis: "旧一轮的分析"}
		require.NoError(t, s.Save(ctx, sess))

		fresh, isFollowUp, prev, err := s.GetOrCreate(ctx, sess.ID, "重新开始", true)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, fresh.ID)
		assert.Equal(t, store.PhaseInitial, fresh.Phase)
		assert.Nil(t, fresh.SpecialistOutput)
		assert.False(t, isFollowUp, "reset never counts as follow-up")
		require.NotNil(t, prev, "previous output must survive the reset for the caller")
		assert.Equal(t, "旧一轮的分析", prev.Analysis)
	})

	t.Run("supplied unknown id is an error", func(t *testing.T) {
		_, _, _, err := s.GetOrCreate(ctx, "never-created", "问题", false)
		assert.ErrorIs(t, err, ErrUnknownSession, "clients cannot mint sessions under ids of their own choosing")
	})

	t.Run("get unknown id returns nil", func(t *testing.T) {
		loaded, err := s.Get(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("save round-trips nested snapshots", func(t *testing.T) {
		sess, _, _, err := s.GetOrCreate(ctx, "", "公司股权", false)
		require.NoError(t, err)

		sess.Phase = store.PhaseCompleted
		sess.Decision = store.DecisionConfirmed
		sess.InSpecialistMode = true
		sess.Classification = &store.Classification{
			PrimaryType:    "company_law",
			SpecialistRole: "公司法专家",
			Confidence:     0.91,
			RelevantLaws:   []string{"公司法", "公司法司法解释三"},
		}
		sess.SpecialistOutput = &store.SpecialistOutput{
			Analysis:     "股东未实缴出资的责任分析",
			ActionSteps:  []string{"核查出资记录", "发出催缴函"},
			RagTriggered: true,
			RagSources:   []string{"legal_corpus"},
		}
		sess.Touch(time.Now())
		require.NoError(t, s.Save(ctx, sess))

		loaded, err := s.Get(ctx, sess.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, store.PhaseCompleted, loaded.Phase)
		assert.Equal(t, store.DecisionConfirmed, loaded.Decision)
		assert.True(t, loaded.InSpecialistMode)
		require.NotNil(t, loaded.Classification)
		assert.Equal(t, []string{"公司法", "公司法司法解释三"}, loaded.Classification.RelevantLaws)
		require.NotNil(t, loaded.SpecialistOutput)
		assert.Equal(t, []string{"核查出资记录", "发出催缴函"}, loaded.SpecialistOutput.ActionSteps)
	})

	t.Run("cleared specialist output stays cleared", func(t *testing.T) {
		sess, _, _, err := s.GetOrCreate(ctx, "", "追问场景", false)
		require.NoError(t, err)

		sess.SpecialistOutput = &store.SpecialistOutput{Analysis: "第一轮"}
		require.NoError(t, s.Save(ctx, sess))

		sess.SpecialistOutput = nil
		require.NoError(t, s.Save(ctx, sess))

		loaded, err := s.Get(ctx, sess.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Nil(t, loaded.SpecialistOutput, "stale output must not resurface from storage")
	})

	t.Run("delete removes session", func(t *testing.T) {
		sess, _, _, err := s.GetOrCreate(ctx, "", "待删除", false)
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, sess.ID))
		loaded, err := s.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemoryStore(time.Hour))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	sess, _, _, err := s.GetOrCreate(ctx, "", "问题", false)
	require.NoError(t, err)

	loaded, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	loaded.Phase = store.PhaseCancelled

	reloaded, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, store.PhaseInitial, reloaded.Phase, "mutating a loaded session must not leak into the store")
}

func TestMemoryStoreCopiesNestedSnapshots(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	sess, _, _, err := s.GetOrCreate(ctx, "", "问题", false)
	require.NoError(t, err)

	sess.Classification = &store.Classification{
		PrimaryType:        "labor_dispute",
		RelevantLaws:       []string{"劳动合同法"},
		SuggestedQuestions: []string{"是否签订了书面合同？"},
	}
	sess.SpecialistOutput = &store.SpecialistOutput{
		Analysis:    "第一轮分析",
		ActionSteps: []string{"申请仲裁"},
	}
	require.NoError(t, s.Save(ctx, sess))

	// The caller keeps editing its own session after Save; none of it may
	// reach the stored value through shared pointers or slice backing arrays.
	sess.Classification.PrimaryType = "changed"
	sess.Classification.RelevantLaws[0] = "changed"
	sess.SpecialistOutput.ActionSteps[0] = "changed"

	loaded, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Classification)
	assert.Equal(t, "labor_dispute", loaded.Classification.PrimaryType)
	assert.Equal(t, []string{"劳动合同法"}, loaded.Classification.RelevantLaws)
	require.NotNil(t, loaded.SpecialistOutput)
	assert.Equal(t, []string{"申请仲裁"}, loaded.SpecialistOutput.ActionSteps)

	// Same aliasing check on the read side.
	loaded.SpecialistOutput.Analysis = "changed"
	loaded.Classification.SuggestedQuestions[0] = "changed"

	reloaded, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "第一轮分析", reloaded.SpecialistOutput.Analysis)
	assert.Equal(t, []string{"是否签订了书面合同？"}, reloaded.Classification.SuggestedQuestions)
}

func TestRedisStoreContract(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping Redis session store test")
	}

	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())

	runStoreContract(t, NewRedisStore(client, time.Hour))
}
