package chat_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/nagare-ai/chat-service/internal/core/docdb"
	"github.com/nagare-ai/chat-service/internal/domain/models"
	"github.com/nagare-ai/chat-service/internal/services/chat"
	"github.com/nagare-ai/chat-service/internal/services/responses"
	"github.com/nagare-ai/chat-service/internal/services/session"
)

// memCollection is an in-memory docdb.Collection understanding the _id and
// conversationId filters the chat service issues. The debounced persister
// writes from a timer goroutine, so access is locked.
type memCollection struct {
	mu      sync.Mutex
	docs    []interface{}
	updates []bson.M
}

func docID(doc interface{}) string {
	switch d := doc.(type) {
	case *models.Message:
		return d.ID
	case *models.Conversation:
		return d.ID
	}
	return ""
}

func docConversationID(doc interface{}) string {
	if m, ok := doc.(*models.Message); ok {
		return m.ConversationID
	}
	return ""
}

func docMatches(doc interface{}, filter interface{}) bool {
	conditions, ok := filter.(bson.M)
	if !ok {
		return false
	}
	for field, want := range conditions {
		switch field {
		case "_id":
			if docID(doc) != want {
				return false
			}
		case "conversationId":
			if docConversationID(doc) != want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

type memResult struct {
	doc interface{}
	err error
}

func (r *memResult) Decode(v interface{}) error {
	if r.err != nil {
		return r.err
	}
	switch target := v.(type) {
	case *models.Conversation:
		*target = *r.doc.(*models.Conversation)
	case *models.Message:
		*target = *r.doc.(*models.Message)
	default:
		return fmt.Errorf("unsupported decode target %T", v)
	}
	return nil
}

func (r *memResult) Err() error { return r.err }

type memCursor struct {
	docs []interface{}
}

func (c *memCursor) Next(context.Context) bool   { return false }
func (c *memCursor) Decode(interface{}) error    { return errors.New("not implemented") }
func (c *memCursor) Err() error                  { return nil }
func (c *memCursor) Close(context.Context) error { return nil }

func (c *memCursor) All(_ context.Context, results interface{}) error {
	switch target := results.(type) {
	case *[]*models.Message:
		for _, doc := range c.docs {
			*target = append(*target, doc.(*models.Message))
		}
	case *[]*models.Conversation:
		for _, doc := range c.docs {
			*target = append(*target, doc.(*models.Conversation))
		}
	default:
		return fmt.Errorf("unsupported results target %T", results)
	}
	return nil
}

func (c *memCollection) InsertOne(_ context.Context, document interface{}) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, document)
	return docID(document), nil
}

func (c *memCollection) InsertMany(ctx context.Context, documents []interface{}) ([]interface{}, error) {
	ids := make([]interface{}, 0, len(documents))
	for _, doc := range documents {
		id, err := c.InsertOne(ctx, doc)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *memCollection) FindOne(_ context.Context, filter interface{}) docdb.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range c.docs {
		if docMatches(doc, filter) {
			return &memResult{doc: doc}
		}
	}
	return &memResult{err: errors.New("no documents in result")}
}

func (c *memCollection) Find(_ context.Context, filter interface{}, opts *docdb.FindOptions) (docdb.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var matched []interface{}
	for _, doc := range c.docs {
		if docMatches(doc, filter) {
			matched = append(matched, doc)
		}
	}
	if opts != nil && opts.Skip > 0 && opts.Skip < int64(len(matched)) {
		matched = matched[opts.Skip:]
	}
	if opts != nil && opts.Limit > 0 && opts.Limit < int64(len(matched)) {
		matched = matched[:opts.Limit]
	}
	return &memCursor{docs: matched}, nil
}

func (c *memCollection) UpdateOne(_ context.Context, filter interface{}, update interface{}) (*docdb.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if set, ok := update.(bson.M); ok {
		c.updates = append(c.updates, set)
	}
	for _, doc := range c.docs {
		if docMatches(doc, filter) {
			return &docdb.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return &docdb.UpdateResult{}, nil
}

func (c *memCollection) ReplaceOne(_ context.Context, filter interface{}, replacement interface{}) (*docdb.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, doc := range c.docs {
		if docMatches(doc, filter) {
			c.docs[i] = replacement
			return &docdb.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	c.docs = append(c.docs, replacement)
	return &docdb.UpdateResult{UpsertedCount: 1}, nil
}

func (c *memCollection) UpdateMany(context.Context, interface{}, interface{}) (*docdb.UpdateResult, error) {
	return &docdb.UpdateResult{}, nil
}

func (c *memCollection) DeleteOne(_ context.Context, filter interface{}) (*docdb.DeleteResult, error) {
	return c.delete(filter, true)
}

func (c *memCollection) DeleteMany(_ context.Context, filter interface{}) (*docdb.DeleteResult, error) {
	return c.delete(filter, false)
}

func (c *memCollection) delete(filter interface{}, single bool) (*docdb.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var kept []interface{}
	var deleted int64
	for _, doc := range c.docs {
		if docMatches(doc, filter) && (!single || deleted == 0) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	c.docs = kept
	return &docdb.DeleteResult{DeletedCount: deleted}, nil
}

func (c *memCollection) CountDocuments(_ context.Context, filter interface{}) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var count int64
	for _, doc := range c.docs {
		if docMatches(doc, filter) {
			count++
		}
	}
	return count, nil
}

func (c *memCollection) lastUpdate(t *testing.T) bson.M {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.updates)
	return c.updates[len(c.updates)-1]
}

type fakeDB struct {
	messages      *memCollection
	conversations *memCollection
}

func newFakeDB() *fakeDB {
	return &fakeDB{messages: &memCollection{}, conversations: &memCollection{}}
}

func (d *fakeDB) Database() docdb.Database      { return nil }
func (d *fakeDB) Messages() docdb.Collection    { return d.messages }
func (d *fakeDB) Conversations() docdb.Collection {
	return d.conversations
}
func (d *fakeDB) VectorStores() docdb.Collection { return nil }
func (d *fakeDB) Ping(context.Context) error     { return nil }
func (d *fakeDB) Close(context.Context) error    { return nil }

// fakeSessions serves a canned cached snapshot.
type fakeSessions struct {
	data *session.SessionData
}

func (s *fakeSessions) GetSession(context.Context, string) (*session.SessionData, error) {
	return s.data, nil
}

func (s *fakeSessions) SetSession(_ context.Context, data *session.SessionData) error {
	s.data = data
	return nil
}

func (s *fakeSessions) AppendMessages(_ context.Context, _ string, newMessages []*models.Message) error {
	if s.data == nil {
		return errors.New("session not found")
	}
	s.data.Messages = append(s.data.Messages, newMessages...)
	return nil
}

func (s *fakeSessions) DeleteSession(context.Context, string) error {
	s.data = nil
	return nil
}

func (s *fakeSessions) BuildCacheKey(conversationID string) string {
	return "session:" + conversationID
}

func setupChatService(t *testing.T, db *fakeDB, sessions session.Service, transport *fakeTransport) *chat.Service {
	t.Helper()

	svc, err := chat.NewService(&chat.ServiceConfig{
		DB:           db,
		Sessions:     sessions,
		Orchestrator: setupOrchestrator(t, transport),
		Logger:       zerolog.Nop(),
		DefaultModel: "gpt-4o",
	})
	require.NoError(t, err)
	return svc
}

func seedConversation(t *testing.T, db *fakeDB, id, title string) *models.Conversation {
	t.Helper()

	conversation := models.NewConversation(title, "gpt-4o", "")
	conversation.ID = id
	_, err := db.conversations.InsertOne(context.Background(), conversation)
	require.NoError(t, err)
	return conversation
}

func tokenedAssistant(conversationID, text string, totalTokens int) *models.Message {
	message := assistantMessage(text)
	message.ID = fmt.Sprintf("msg-%s-%d", text, totalTokens)
	message.ConversationID = conversationID
	message.TokenUsage = &models.TokenUsage{TotalTokens: totalTokens}
	return message
}

func completedTransport(usage *responses.Usage) *fakeTransport {
	return &fakeTransport{stream: &fakeStream{
		events: []*responses.Event{deltaEvent("answer")},
		final:  &responses.Response{ID: "resp-1", Usage: usage},
	}}
}

func TestSendMessage_CumulativeTotalFromWindowedSession(t *testing.T) {
	db := newFakeDB()
	seedConversation(t, db, "conv-1", "existing title")

	// A long conversation: the cached snapshot holds only the most recent
	// window, but its running total still covers the trimmed-away turns.
	window := make([]*models.Message, 0, 100)
	for i := 0; i < 100; i++ {
		window = append(window, tokenedAssistant("conv-1", fmt.Sprintf("turn %d", i), 10))
	}
	sessions := &fakeSessions{data: &session.SessionData{
		ConversationID:  "conv-1",
		Messages:        window,
		CumulativeTotal: 1500,
	}}

	svc := setupChatService(t, db, sessions, completedTransport(&responses.Usage{
		InputTokens:  30,
		OutputTokens: 10,
		TotalTokens:  40,
	}))

	message, err := svc.SendMessage(context.Background(), &chat.SendParams{
		ConversationID: "conv-1",
		Content:        "and one more question",
	}, chat.TurnEvents{})
	require.NoError(t, err)

	// Re-summing the visible window would give 1000+40; the running total
	// must carry the trimmed turns too.
	require.NotNil(t, message.TokenUsage)
	assert.Equal(t, 1540, message.TokenUsage.CumulativeTotal)
	assert.Equal(t, 40, message.TokenUsage.TotalTokens)
}

func TestSendMessage_CumulativeTotalFromStorage(t *testing.T) {
	db := newFakeDB()
	seedConversation(t, db, "conv-1", "existing title")

	for _, m := range []*models.Message{
		tokenedAssistant("conv-1", "first", 100),
		tokenedAssistant("conv-1", "second", 200),
	} {
		_, err := db.messages.InsertOne(context.Background(), m)
		require.NoError(t, err)
	}

	svc := setupChatService(t, db, nil, completedTransport(&responses.Usage{TotalTokens: 50}))

	message, err := svc.SendMessage(context.Background(), &chat.SendParams{
		ConversationID: "conv-1",
		Content:        "next question",
	}, chat.TurnEvents{})
	require.NoError(t, err)

	require.NotNil(t, message.TokenUsage)
	assert.Equal(t, 350, message.TokenUsage.CumulativeTotal)
}

func TestSendMessage_TitleTruncatesOnRuneBoundary(t *testing.T) {
	db := newFakeDB()
	seedConversation(t, db, "conv-1", "")

	svc := setupChatService(t, db, nil, completedTransport(nil))

	prompt := strings.Repeat("é", 70)
	_, err := svc.SendMessage(context.Background(), &chat.SendParams{
		ConversationID: "conv-1",
		Content:        prompt,
	}, chat.TurnEvents{})
	require.NoError(t, err)

	update := db.conversations.lastUpdate(t)
	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	title, ok := set["title"].(string)
	require.True(t, ok)

	assert.True(t, utf8.ValidString(title))
	assert.Equal(t, 60, utf8.RuneCountInString(title))
	assert.Equal(t, strings.Repeat("é", 60), title)
}

func TestSendMessage_ShortTitleKeptWhole(t *testing.T) {
	db := newFakeDB()
	seedConversation(t, db, "conv-1", "")

	svc := setupChatService(t, db, nil, completedTransport(nil))

	_, err := svc.SendMessage(context.Background(), &chat.SendParams{
		ConversationID: "conv-1",
		Content:        "  hello there  ",
	}, chat.TurnEvents{})
	require.NoError(t, err)

	set, ok := db.conversations.lastUpdate(t)["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "hello there", set["title"])
}
