// Package chat 提供 Chat 服务单元测试
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/akproject/ak-chat/internal/model"
	"github.com/akproject/ak-chat/internal/repository"
	"github.com/akproject/ak-chat/internal/upstream"
)

// mockChatRepository Mock Chat Repository
// 行为与真实实现对齐：按主键 upsert、排序返回、级联删除
type mockChatRepository struct {
	sessions     map[string]*model.ChatSession
	messages     map[string]*model.ChatMessage
	saveError    error
	saveMsgError error
}

func newMockChatRepo() *mockChatRepository {
	return &mockChatRepository{
		sessions: make(map[string]*model.ChatSession),
		messages: make(map[string]*model.ChatMessage),
	}
}

func (m *mockChatRepository) SaveSession(session *model.ChatSession) error {
	if m.saveError != nil {
		return m.saveError
	}
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *mockChatRepository) SaveMessage(message *model.ChatMessage) error {
	if m.saveMsgError != nil {
		return m.saveMsgError
	}
	cp := *message
	m.messages[message.ID] = &cp
	return nil
}

func (m *mockChatRepository) GetSessionByID(id string) (*model.ChatSession, error) {
	if session, ok := m.sessions[id]; ok {
		cp := *session
		return &cp, nil
	}
	return nil, errors.New("session not found")
}

func (m *mockChatRepository) GetSessions() ([]*model.ChatSession, error) {
	result := make([]*model.ChatSession, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (m *mockChatRepository) GetSessionMessages(sessionID string) ([]*model.ChatMessage, error) {
	result := make([]*model.ChatMessage, 0)
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			result = append(result, msg)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockChatRepository) CountSessionMessages(sessionID string) (int64, error) {
	var count int64
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

func (m *mockChatRepository) DeleteSession(sessionID string) error {
	delete(m.sessions, sessionID)
	for id, msg := range m.messages {
		if msg.SessionID == sessionID {
			delete(m.messages, id)
		}
	}
	return nil
}

func (m *mockChatRepository) GetStorageSize() (*repository.StorageSize, error) {
	sessions, _ := m.GetSessions()
	messages := make([]*model.ChatMessage, 0, len(m.messages))
	for _, msg := range m.messages {
		messages = append(messages, msg)
	}
	sessionsJSON, _ := json.Marshal(sessions)
	messagesJSON, _ := json.Marshal(messages)
	return &repository.StorageSize{
		Sessions: len(sessionsJSON),
		Messages: len(messagesJSON),
		Total:    len(sessionsJSON) + len(messagesJSON),
	}, nil
}

func (m *mockChatRepository) ClearAllData() error {
	m.sessions = make(map[string]*model.ChatSession)
	m.messages = make(map[string]*model.ChatMessage)
	return nil
}

// mockCompleter Mock 上游补全
type mockCompleter struct {
	reply string
	err   error
	calls int
}

func (m *mockCompleter) Complete(ctx context.Context, settings upstream.Settings, message string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// newTestService 创建带受控时钟的测试服务，时钟每次读取前进一秒
func newTestService(repo *mockChatRepository, up *mockCompleter) *Service {
	svc := NewService(repo, up)
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		current = current.Add(time.Second)
		return current
	}
	return svc
}

// ========== CreateSession 测试 ==========

func TestCreateSession(t *testing.T) {
	repo := newMockChatRepo()
	svc := newTestService(repo, &mockCompleter{})

	session, err := svc.CreateSession(context.Background(), &CreateSessionRequest{
		Name:  "Chat 1",
		Model: "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if session.ID == "" {
		t.Error("session ID is empty")
	}
	if session.MessageCount != 0 {
		t.Errorf("MessageCount = %d, want 0", session.MessageCount)
	}
	if _, ok := repo.sessions[session.ID]; !ok {
		t.Error("session was not persisted")
	}
}

func TestCreateSessionDefaultName(t *testing.T) {
	repo := newMockChatRepo()
	svc := newTestService(repo, &mockCompleter{})

	session, err := svc.CreateSession(context.Background(), &CreateSessionRequest{Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if session.Name != "Чат 1" {
		t.Errorf("Name = %q, want %q", session.Name, "Чат 1")
	}
}

// ========== SendMessage 测试 ==========

func TestSendMessage(t *testing.T) {
	repo := newMockChatRepo()
	up := &mockCompleter{reply: "Привет!"}
	svc := newTestService(repo, up)

	// 具体场景：创建会话 s1，发送一条用户消息
	session := &model.ChatSession{ID: "s1", Name: "Chat 1", Model: "gpt-4o-mini"}
	if err := repo.SaveSession(session); err != nil {
		t.Fatal(err)
	}

	resp, err := svc.SendMessage(context.Background(), "s1", &SendMessageRequest{Content: "hi"})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if resp.UserMessage.Role != model.RoleUser || resp.UserMessage.Content != "hi" {
		t.Errorf("unexpected user message: %+v", resp.UserMessage)
	}
	if resp.AssistantMessage.Role != model.RoleAssistant || resp.AssistantMessage.Content != "Привет!" {
		t.Errorf("unexpected assistant message: %+v", resp.AssistantMessage)
	}

	// 会话计数与活跃时间推进
	updated, _ := repo.GetSessionByID("s1")
	if updated.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", updated.MessageCount)
	}

	// 最近活跃的会话排在最前
	sessions, _ := repo.GetSessions()
	if len(sessions) == 0 || sessions[0].ID != "s1" {
		t.Errorf("GetSessions()[0] != s1")
	}

	// 往返：读回的消息与写入的一致
	messages, _ := svc.GetMessages(context.Background(), "s1")
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	if messages[0].ID != resp.UserMessage.ID ||
		messages[0].SessionID != "s1" ||
		messages[0].Content != resp.UserMessage.Content ||
		!messages[0].CreatedAt.Equal(resp.UserMessage.CreatedAt) {
		t.Errorf("round-trip mismatch: got %+v, want %+v", messages[0], resp.UserMessage)
	}
}

func TestSendMessageUpstreamError(t *testing.T) {
	repo := newMockChatRepo()
	up := &mockCompleter{err: errors.New("upstream down")}
	svc := newTestService(repo, up)

	repo.SaveSession(&model.ChatSession{ID: "s1", Model: "gpt-4o-mini"})

	_, err := svc.SendMessage(context.Background(), "s1", &SendMessageRequest{Content: "hi"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// 用户消息已落库并计数，上游失败不回滚
	messages, _ := svc.GetMessages(context.Background(), "s1")
	if len(messages) != 1 {
		t.Fatalf("len(messages) = %d, want 1", len(messages))
	}
	updated, _ := repo.GetSessionByID("s1")
	if updated.MessageCount != 1 {
		t.Errorf("MessageCount = %d, want 1", updated.MessageCount)
	}
}

func TestMessageCountMatchesStoredMessages(t *testing.T) {
	repo := newMockChatRepo()
	svc := newTestService(repo, &mockCompleter{reply: "ok"})

	repo.SaveSession(&model.ChatSession{ID: "s1", Model: "gpt-4o-mini"})

	// 不变量：message_count 始终等于会话实际存储的消息数
	for i := 0; i < 3; i++ {
		if _, err := svc.SendMessage(context.Background(), "s1", &SendMessageRequest{Content: "hi"}); err != nil {
			t.Fatalf("SendMessage() error = %v", err)
		}

		session, _ := repo.GetSessionByID("s1")
		count, _ := repo.CountSessionMessages("s1")
		if int64(session.MessageCount) != count {
			t.Fatalf("MessageCount = %d, stored messages = %d", session.MessageCount, count)
		}
	}

	// 上游失败后计数仍与存储一致
	repo2 := newMockChatRepo()
	svc2 := newTestService(repo2, &mockCompleter{err: errors.New("upstream down")})
	repo2.SaveSession(&model.ChatSession{ID: "s2", Model: "gpt-4o-mini"})

	svc2.SendMessage(context.Background(), "s2", &SendMessageRequest{Content: "hi"})

	session, _ := repo2.GetSessionByID("s2")
	count, _ := repo2.CountSessionMessages("s2")
	if int64(session.MessageCount) != count {
		t.Errorf("MessageCount = %d, stored messages = %d", session.MessageCount, count)
	}
}

func TestSendMessageSessionNotFound(t *testing.T) {
	svc := newTestService(newMockChatRepo(), &mockCompleter{})

	_, err := svc.SendMessage(context.Background(), "missing", &SendMessageRequest{Content: "hi"})
	if err == nil {
		t.Fatal("expected error for missing session")
	}
}

// ========== 消息排序测试 ==========

func TestMessagesOrderedByCreatedAt(t *testing.T) {
	repo := newMockChatRepo()
	svc := newTestService(repo, &mockCompleter{})

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	// 乱序写入
	repo.SaveMessage(&model.ChatMessage{ID: "m2", SessionID: "s1", CreatedAt: base.Add(2 * time.Second)})
	repo.SaveMessage(&model.ChatMessage{ID: "m1", SessionID: "s1", CreatedAt: base.Add(1 * time.Second)})
	repo.SaveMessage(&model.ChatMessage{ID: "m3", SessionID: "s1", CreatedAt: base.Add(3 * time.Second)})
	repo.SaveMessage(&model.ChatMessage{ID: "other", SessionID: "s2", CreatedAt: base})

	messages, err := svc.GetMessages(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}

	want := []string{"m1", "m2", "m3"}
	if len(messages) != len(want) {
		t.Fatalf("len(messages) = %d, want %d", len(messages), len(want))
	}
	for i, id := range want {
		if messages[i].ID != id {
			t.Errorf("messages[%d].ID = %q, want %q", i, messages[i].ID, id)
		}
	}
}

// ========== RenameSession 测试 ==========

func TestRenameSessionUpsert(t *testing.T) {
	repo := newMockChatRepo()
	svc := newTestService(repo, &mockCompleter{})

	repo.SaveSession(&model.ChatSession{ID: "s1", Name: "Old"})

	if _, err := svc.RenameSession(context.Background(), "s1", "New"); err != nil {
		t.Fatalf("RenameSession() error = %v", err)
	}

	// 同一主键下仍是一条记录，且名称已更新
	if len(repo.sessions) != 1 {
		t.Errorf("len(sessions) = %d, want 1", len(repo.sessions))
	}
	if repo.sessions["s1"].Name != "New" {
		t.Errorf("Name = %q, want %q", repo.sessions["s1"].Name, "New")
	}
}

// ========== DeleteSession 测试 ==========

func TestDeleteSessionCascades(t *testing.T) {
	repo := newMockChatRepo()
	svc := newTestService(repo, &mockCompleter{})

	repo.SaveSession(&model.ChatSession{ID: "s1"})
	repo.SaveMessage(&model.ChatMessage{ID: "m1", SessionID: "s1"})
	repo.SaveMessage(&model.ChatMessage{ID: "m2", SessionID: "s1"})
	repo.SaveMessage(&model.ChatMessage{ID: "m3", SessionID: "s2"})

	if err := svc.DeleteSession(context.Background(), "s1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	sessions, _ := svc.ListSessions(context.Background())
	for _, s := range sessions {
		if s.ID == "s1" {
			t.Error("deleted session still listed")
		}
	}

	messages, _ := svc.GetMessages(context.Background(), "s1")
	if len(messages) != 0 {
		t.Errorf("orphaned messages remain: %d", len(messages))
	}

	// 其他会话的消息不受影响
	other, _ := svc.GetMessages(context.Background(), "s2")
	if len(other) != 1 {
		t.Errorf("unrelated messages affected: %d", len(other))
	}
}

// ========== ClearAll 测试 ==========

func TestClearAll(t *testing.T) {
	repo := newMockChatRepo()
	svc := newTestService(repo, &mockCompleter{})

	repo.SaveSession(&model.ChatSession{ID: "s1"})
	repo.SaveMessage(&model.ChatMessage{ID: "m1", SessionID: "s1"})

	if err := svc.ClearAll(context.Background()); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	sessions, _ := svc.ListSessions(context.Background())
	if len(sessions) != 0 {
		t.Errorf("len(sessions) = %d, want 0", len(sessions))
	}
	messages, _ := svc.GetMessages(context.Background(), "s1")
	if len(messages) != 0 {
		t.Errorf("len(messages) = %d, want 0", len(messages))
	}
}

// ========== StorageSize 测试 ==========

func TestStorageSize(t *testing.T) {
	repo := newMockChatRepo()
	svc := newTestService(repo, &mockCompleter{})

	repo.SaveSession(&model.ChatSession{ID: "s1", Name: "Chat"})
	repo.SaveMessage(&model.ChatMessage{ID: "m1", SessionID: "s1", Content: "hello"})

	size, err := svc.StorageSize(context.Background())
	if err != nil {
		t.Fatalf("StorageSize() error = %v", err)
	}
	if size.Sessions <= 0 || size.Messages <= 0 {
		t.Errorf("sizes not positive: %+v", size)
	}
	if size.Total != size.Sessions+size.Messages {
		t.Errorf("Total = %d, want %d", size.Total, size.Sessions+size.Messages)
	}
}

// ========== formatContent 测试 ==========

func TestFormatContent(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		attachments []Attachment
		wantSame    bool
	}{
		{
			name:     "no attachments",
			content:  "hello",
			wantSame: true,
		},
		{
			name:    "with attachment",
			content: "check this",
			attachments: []Attachment{
				{Name: "notes.txt", Content: "line one"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatContent(tt.content, tt.attachments)
			if tt.wantSame {
				if got != tt.content {
					t.Errorf("formatContent() = %q, want unchanged", got)
				}
				return
			}
			if got == tt.content {
				t.Error("attachment was not appended")
			}
			for _, att := range tt.attachments {
				if !containsAll(got, att.Name, att.Content) {
					t.Errorf("formatted content missing attachment %q", att.Name)
				}
			}
		})
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		found := false
		for i := 0; i+len(p) <= len(s); i++ {
			if s[i:i+len(p)] == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
