package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/luminastro/lumina/internal/conversation"
	"github.com/luminastro/lumina/internal/knowledge"
	"github.com/luminastro/lumina/internal/quota"
	"github.com/luminastro/lumina/internal/testutil"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeRetriever struct {
	chunks []knowledge.Result
	err    error
}

func (f *fakeRetriever) Retrieve(context.Context, []string, []float32, ...knowledge.SearchOption) ([]knowledge.Result, error) {
	return f.chunks, f.err
}

type fakeConversations struct {
	id       uuid.UUID
	history  []conversation.Turn
	appended []conversation.Turn
}

func (f *fakeConversations) GetOrCreate(_ context.Context, reportID, requesterID, tier string) (*conversation.Conversation, error) {
	return &conversation.Conversation{ID: f.id, ReportID: reportID, RequesterID: requesterID, Tier: tier}, nil
}

func (f *fakeConversations) Messages(context.Context, uuid.UUID) ([]conversation.Turn, error) {
	return f.history, nil
}

func (f *fakeConversations) Append(_ context.Context, _ uuid.UUID, turns ...conversation.Turn) ([]conversation.Turn, error) {
	f.appended = append(f.appended, turns...)
	return append(f.history, turns...), nil
}

type fakeQuota struct {
	status     quota.Status
	increments int
}

func (f *fakeQuota) Check(context.Context, string, string, string) (quota.Status, error) {
	return f.status, nil
}

func (f *fakeQuota) Increment(context.Context, string, string, string) error {
	f.increments++
	return nil
}

// scriptedModel returns its responses in order; a response that is an error
// string prefixed with "err:" fails that call.
type scriptedModel struct {
	responses []string
	calls     int
}

func (m *scriptedModel) Generate(context.Context, string) (string, error) {
	if m.calls >= len(m.responses) {
		return "", errors.New("no scripted response left")
	}
	resp := m.responses[m.calls]
	m.calls++
	if rest, ok := strings.CutPrefix(resp, "err:"); ok {
		return "", errors.New(rest)
	}
	return resp, nil
}

func modelJSON(answer string, citations []int) string {
	var refs strings.Builder
	for i, c := range citations {
		if i > 0 {
			refs.WriteString(",")
		}
		fmt.Fprintf(&refs, "%d", c)
	}
	return fmt.Sprintf(`{"promptVersion":%q,"answer":%q,"citations":[%s],"followUps":["接下來呢？","還有嗎？"]}`,
		promptVersion, answer, refs.String())
}

func chunksWithIDs(ids ...string) []knowledge.Result {
	chunks := make([]knowledge.Result, len(ids))
	for i, id := range ids {
		chunks[i] = knowledge.Result{ID: id, Content: "chunk " + id, Similarity: 0.8}
	}
	return chunks
}

func newTestGenerator(t *testing.T, cfg Config) *Generator {
	t.Helper()
	if cfg.Embedder == nil {
		cfg.Embedder = &fakeEmbedder{}
	}
	if cfg.Retriever == nil {
		cfg.Retriever = &fakeRetriever{chunks: chunksWithIDs("r1:0")}
	}
	if cfg.Conversations == nil {
		cfg.Conversations = &fakeConversations{id: uuid.New()}
	}
	if cfg.Quota == nil {
		cfg.Quota = &fakeQuota{status: quota.Status{HasQuota: true, Remaining: 5}}
	}
	if cfg.Logger == nil {
		cfg.Logger = testutil.Logger(t)
	}
	cfg.RetryBase = time.Millisecond
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func TestAnswerSuccess(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []string{modelJSON("事業運穩定上升。", []int{1})}}
	tracker := &fakeQuota{status: quota.Status{HasQuota: true, Remaining: 5}}
	convs := &fakeConversations{id: uuid.New()}
	g := newTestGenerator(t, Config{Model: model, Quota: tracker, Conversations: convs})

	result, err := g.Answer(context.Background(), Request{
		ReportID: "r1", RequesterID: "alice", Tier: "free", Question: "事業運如何？",
	})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !result.Ok {
		t.Fatal("Answer() result not ok")
	}
	if result.Answer != "事業運穩定上升。" {
		t.Errorf("Answer = %q", result.Answer)
	}
	if len(result.Citations) != 1 || result.Citations[0] != "r1:0" {
		t.Errorf("Citations = %v, want [r1:0]", result.Citations)
	}
	if result.Remaining != 4 {
		t.Errorf("Remaining = %d, want 4", result.Remaining)
	}
	if tracker.increments != 1 {
		t.Errorf("usage incremented %d times, want 1", tracker.increments)
	}
	if len(convs.appended) != 2 {
		t.Errorf("appended %d turns, want user and assistant", len(convs.appended))
	}
}

func TestAnswerQuotaDenied(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []string{modelJSON("should not run", []int{1})}}
	tracker := &fakeQuota{status: quota.Status{HasQuota: false}}
	g := newTestGenerator(t, Config{Model: model, Quota: tracker})

	result, err := g.Answer(context.Background(), Request{
		ReportID: "r1", RequesterID: "alice", Tier: "free", Question: "事業運如何？",
	})
	if err != nil {
		t.Fatalf("Answer() error = %v, denial must not be an error", err)
	}
	if result.Ok {
		t.Error("denied request returned Ok")
	}
	if result.Message == "" {
		t.Error("denial carries no message")
	}
	if model.calls != 0 {
		t.Errorf("model invoked %d times during denial, want 0", model.calls)
	}
	if tracker.increments != 0 {
		t.Errorf("usage incremented %d times during denial, want 0", tracker.increments)
	}
}

func TestAnswerTimeoutThenRetrySucceeds(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []string{
		"err:request timeout",
		modelJSON("重試後成功。", []int{1}),
	}}
	tracker := &fakeQuota{status: quota.Status{HasQuota: true, Remaining: 3}}
	g := newTestGenerator(t, Config{Model: model, Quota: tracker})

	result, err := g.Answer(context.Background(), Request{
		ReportID: "r1", RequesterID: "alice", Tier: "free", Question: "事業運如何？",
	})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !result.Ok {
		t.Fatal("Answer() result not ok after retry")
	}
	if model.calls != 2 {
		t.Errorf("model called %d times, want 2", model.calls)
	}
	if tracker.increments != 1 {
		t.Errorf("usage incremented %d times, want exactly 1", tracker.increments)
	}
}

func TestAnswerModelFailureAfterRetries(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []string{
		"err:503 unavailable", "err:503 unavailable", "err:503 unavailable",
	}}
	tracker := &fakeQuota{status: quota.Status{HasQuota: true, Remaining: 3}}
	g := newTestGenerator(t, Config{Model: model, Quota: tracker})

	_, err := g.Answer(context.Background(), Request{
		ReportID: "r1", RequesterID: "alice", Tier: "free", Question: "q",
	})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("Answer() error = %v, want ErrModelUnavailable", err)
	}
	if tracker.increments != 0 {
		t.Errorf("usage incremented %d times after failure, want 0", tracker.increments)
	}
}

func TestAnswerValidationFailureDoesNotIncrement(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []string{`{"promptVersion":"wrong","answer":42}`}}
	tracker := &fakeQuota{status: quota.Status{HasQuota: true, Remaining: 3}}
	g := newTestGenerator(t, Config{Model: model, Quota: tracker})

	_, err := g.Answer(context.Background(), Request{
		ReportID: "r1", RequesterID: "alice", Tier: "free", Question: "q",
	})
	if err == nil {
		t.Fatal("Answer() should fail on invalid payload")
	}
	if !strings.Contains(err.Error(), "schema validation") {
		t.Errorf("error %q does not name schema validation", err.Error())
	}
	if tracker.increments != 0 {
		t.Errorf("usage incremented %d times after validation failure, want 0", tracker.increments)
	}
}

func TestAnswerCitationDedupFirstSeen(t *testing.T) {
	t.Parallel()

	// Retrieved context carries duplicate chunk ids; the model cites every
	// reference number.
	retriever := &fakeRetriever{chunks: chunksWithIDs("1", "3", "1", "2")}
	model := &scriptedModel{responses: []string{modelJSON("有引用的回答。", []int{1, 2, 3, 4})}}
	g := newTestGenerator(t, Config{Model: model, Retriever: retriever})

	result, err := g.Answer(context.Background(), Request{
		ReportID: "r1", RequesterID: "alice", Tier: "free", Question: "q",
	})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	want := []string{"1", "3", "2"}
	if len(result.Citations) != len(want) {
		t.Fatalf("Citations = %v, want %v", result.Citations, want)
	}
	for i, id := range want {
		if result.Citations[i] != id {
			t.Errorf("Citations[%d] = %q, want %q", i, result.Citations[i], id)
		}
	}
}

func TestAnswerDropsOutOfRangeCitations(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{chunks: chunksWithIDs("r1:0", "r1:1")}
	model := &scriptedModel{responses: []string{modelJSON("回答。", []int{2, 7, 0, -1})}}
	g := newTestGenerator(t, Config{Model: model, Retriever: retriever})

	result, err := g.Answer(context.Background(), Request{
		ReportID: "r1", RequesterID: "alice", Tier: "free", Question: "q",
	})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(result.Citations) != 1 || result.Citations[0] != "r1:1" {
		t.Errorf("Citations = %v, want [r1:1]", result.Citations)
	}
}

func TestAnswerRetrievalFailureDegradesToEmptyContext(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{err: errors.New("pgvector down")}
	raw := fmt.Sprintf(`{"promptVersion":%q,"answer":"報告中沒有相關內容。","followUps":["a","b"]}`, promptVersion)
	model := &scriptedModel{responses: []string{raw}}
	g := newTestGenerator(t, Config{Model: model, Retriever: retriever})

	result, err := g.Answer(context.Background(), Request{
		ReportID: "r1", RequesterID: "alice", Tier: "free", Question: "q",
	})
	if err != nil {
		t.Fatalf("Answer() error = %v, retrieval failure must degrade", err)
	}
	if !result.Ok {
		t.Error("degraded answer should still be ok")
	}
	if len(result.Citations) != 0 {
		t.Errorf("Citations = %v, want none with empty context", result.Citations)
	}
}

func TestAnswerUnlimitedTierRemaining(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []string{modelJSON("回答。", []int{1})}}
	tracker := &fakeQuota{status: quota.Status{HasQuota: true, Remaining: -1}}
	g := newTestGenerator(t, Config{Model: model, Quota: tracker})

	result, err := g.Answer(context.Background(), Request{
		ReportID: "r1", RequesterID: "alice", Tier: "unlimited", Question: "q",
	})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.Remaining != -1 {
		t.Errorf("Remaining = %d, want -1 for unlimited", result.Remaining)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Error("New() with empty config should fail")
	}
}
