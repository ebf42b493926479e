package bot

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// memStore is an in-memory ProfileStore for tests.
type memStore struct {
	profiles map[int64]Profile
}

func newMemStore(profiles ...Profile) *memStore {
	s := &memStore{profiles: make(map[int64]Profile)}
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	return s
}

func (s *memStore) Get(_ context.Context, id int64) (Profile, bool, error) {
	p, ok := s.profiles[id]
	return p, ok, nil
}

func (s *memStore) Create(_ context.Context, p Profile) error {
	s.profiles[p.ID] = p
	return nil
}

func (s *memStore) SetAccess(_ context.Context, id int64, access int) error {
	p := s.profiles[id]
	p.Access = access
	s.profiles[id] = p
	return nil
}

func (s *memStore) SetBan(_ context.Context, id int64, banned bool) error {
	p := s.profiles[id]
	p.Banned = banned
	s.profiles[id] = p
	return nil
}

func (s *memStore) IDByUsername(_ context.Context, username string) (int64, bool, error) {
	for _, p := range s.profiles {
		if p.Username == username {
			return p.ID, true, nil
		}
	}
	return 0, false, nil
}

// fakeAPI records outgoing messages instead of hitting Telegram.
type fakeAPI struct {
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) messagesTo(chatID int64) []string {
	var texts []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

func testConfig() Config {
	return Config{
		SupportChatID:     -100,
		DevChatID:         -200,
		WelcomeMessage:    "welcome",
		ErrorMessage:      "error",
		QuestionPrompt:    "ask away",
		QuestionSent:      "sent",
		NewQuestionButton: "new question",
		Level1Name:        "support",
		Level2Name:        "moder",
		Level3Name:        "admin",
	}
}

func privateMessage(userID int64, username, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, UserName: username},
		Chat:      &tgbotapi.Chat{ID: userID, Type: "private", UserName: username},
		Text:      text,
	}
}

func TestStartCreatesProfile(t *testing.T) {
	store := newMemStore()
	api := &fakeAPI{}
	b := New(api, store, testConfig(), nil)

	b.HandleMessage(context.Background(), privateMessage(42, "alice", "/start"))

	p, ok, _ := store.Get(context.Background(), 42)
	if !ok {
		t.Fatal("profile not created")
	}
	if p.Access != AccessNone || p.Banned {
		t.Fatalf("new profile = %+v, want zero access and no ban", p)
	}
	if got := api.messagesTo(42); len(got) != 1 || got[0] != "welcome" {
		t.Fatalf("sent = %v, want the welcome message", got)
	}
}

func TestStartRejectedInGroups(t *testing.T) {
	store := newMemStore()
	api := &fakeAPI{}
	b := New(api, store, testConfig(), nil)

	msg := privateMessage(42, "alice", "/start")
	msg.Chat.Type = "group"
	msg.Chat.ID = -500
	b.HandleMessage(context.Background(), msg)

	if _, ok, _ := store.Get(context.Background(), 42); ok {
		t.Fatal("profile must not be created from a group chat")
	}
}

func TestQuestionFlowForwardsToSupportChat(t *testing.T) {
	store := newMemStore(Profile{ID: 42, Username: "alice"})
	api := &fakeAPI{}
	cfg := testConfig()
	b := New(api, store, cfg, nil)

	b.HandleMessage(context.Background(), privateMessage(42, "alice", cfg.NewQuestionButton))
	if got := api.messagesTo(42); len(got) != 1 || got[0] != cfg.QuestionPrompt {
		t.Fatalf("sent = %v, want the question prompt", got)
	}

	b.HandleMessage(context.Background(), privateMessage(42, "alice", "how do I withdraw?"))

	forwarded := api.messagesTo(cfg.SupportChatID)
	if len(forwarded) != 1 {
		t.Fatalf("support chat received %d messages, want 1", len(forwarded))
	}
	if !strings.Contains(forwarded[0], "how do I withdraw?") {
		t.Fatalf("forwarded message %q lacks the question", forwarded[0])
	}
	if !strings.Contains(forwarded[0], "@alice") {
		t.Fatalf("forwarded message %q lacks the asker", forwarded[0])
	}
	if !strings.Contains(forwarded[0], "/ответ 42") {
		t.Fatalf("forwarded message %q lacks the answer command", forwarded[0])
	}

	// A second plain message must not be treated as another question.
	b.HandleMessage(context.Background(), privateMessage(42, "alice", "hello again"))
	if got := api.messagesTo(cfg.SupportChatID); len(got) != 1 {
		t.Fatalf("support chat received %d messages, state must reset", len(got))
	}
}

func TestBannedUserCannotAsk(t *testing.T) {
	store := newMemStore(Profile{ID: 42, Username: "alice", Banned: true})
	api := &fakeAPI{}
	cfg := testConfig()
	b := New(api, store, cfg, nil)

	b.HandleMessage(context.Background(), privateMessage(42, "alice", cfg.NewQuestionButton))

	if got := api.messagesTo(cfg.SupportChatID); len(got) != 0 {
		t.Fatalf("support chat received %d messages from a banned user", len(got))
	}
	if got := api.messagesTo(42); len(got) != 1 || got[0] != "⚠ Ви *заблоковані* у боті!" {
		t.Fatalf("sent = %v, want the ban notice", got)
	}
}

func TestAnswerRequiresSupportAccess(t *testing.T) {
	store := newMemStore(
		Profile{ID: 1, Username: "nobody", Access: AccessNone},
		Profile{ID: 2, Username: "staff", Access: AccessSupport},
	)
	api := &fakeAPI{}
	b := New(api, store, testConfig(), nil)

	b.HandleMessage(context.Background(), privateMessage(1, "nobody", "/ответ 42 hi"))
	if len(api.sent) != 0 {
		t.Fatalf("unprivileged answer produced %d messages, want silence", len(api.sent))
	}

	b.HandleMessage(context.Background(), privateMessage(2, "staff", "/ответ 42 hi there"))
	delivered := api.messagesTo(42)
	if len(delivered) != 1 {
		t.Fatalf("user received %d messages, want 1", len(delivered))
	}
	if !strings.Contains(delivered[0], "hi there") {
		t.Fatalf("answer %q lacks the text", delivered[0])
	}
}

func TestGiveAccessRequiresAdmin(t *testing.T) {
	store := newMemStore(
		Profile{ID: 1, Username: "moder", Access: AccessModer},
		Profile{ID: 2, Username: "admin", Access: AccessAdmin},
		Profile{ID: 42, Username: "alice"},
	)
	api := &fakeAPI{}
	b := New(api, store, testConfig(), nil)

	b.HandleMessage(context.Background(), privateMessage(1, "moder", "/доступ 42 1"))
	if p, _, _ := store.Get(context.Background(), 42); p.Access != AccessNone {
		t.Fatalf("access = %d, moderator must not grant access", p.Access)
	}

	b.HandleMessage(context.Background(), privateMessage(2, "admin", "/доступ 42 2"))
	if p, _, _ := store.Get(context.Background(), 42); p.Access != AccessModer {
		t.Fatalf("access = %d, want %d", p.Access, AccessModer)
	}
}

func TestGiveAccessRejectsLevelAboveAdmin(t *testing.T) {
	store := newMemStore(
		Profile{ID: 2, Username: "admin", Access: AccessAdmin},
		Profile{ID: 42, Username: "alice"},
	)
	api := &fakeAPI{}
	b := New(api, store, testConfig(), nil)

	b.HandleMessage(context.Background(), privateMessage(2, "admin", "/доступ 42 4"))
	if p, _, _ := store.Get(context.Background(), 42); p.Access != AccessNone {
		t.Fatalf("access = %d, level 4 must be rejected", p.Access)
	}
}

func TestBanAndUnban(t *testing.T) {
	store := newMemStore(
		Profile{ID: 1, Username: "moder", Access: AccessModer},
		Profile{ID: 42, Username: "alice"},
	)
	api := &fakeAPI{}
	b := New(api, store, testConfig(), nil)

	b.HandleMessage(context.Background(), privateMessage(1, "moder", "/бан 42 spam"))
	if p, _, _ := store.Get(context.Background(), 42); !p.Banned {
		t.Fatal("user not banned")
	}
	if got := api.messagesTo(42); len(got) != 1 || !strings.Contains(got[0], "spam") {
		t.Fatalf("ban notice = %v, want reason included", got)
	}

	b.HandleMessage(context.Background(), privateMessage(1, "moder", "/разбан 42"))
	if p, _, _ := store.Get(context.Background(), 42); p.Banned {
		t.Fatal("user still banned")
	}
}

func TestBanRequiresModerAccess(t *testing.T) {
	store := newMemStore(
		Profile{ID: 1, Username: "support", Access: AccessSupport},
		Profile{ID: 42, Username: "alice"},
		Profile{ID: 43, Username: "bob", Banned: true},
	)
	api := &fakeAPI{}
	b := New(api, store, testConfig(), nil)

	b.HandleMessage(context.Background(), privateMessage(1, "support", "/бан 42 spam"))
	if p, _, _ := store.Get(context.Background(), 42); p.Banned {
		t.Fatal("support staff must not be able to ban")
	}

	b.HandleMessage(context.Background(), privateMessage(1, "support", "/разбан 43"))
	if p, _, _ := store.Get(context.Background(), 43); !p.Banned {
		t.Fatal("support staff must not be able to unban")
	}

	if len(api.sent) != 0 {
		t.Fatalf("unprivileged ban commands produced %d messages, want silence", len(api.sent))
	}
}

func TestIDResolvesUsername(t *testing.T) {
	store := newMemStore(Profile{ID: 42, Username: "alice"})
	api := &fakeAPI{}
	b := New(api, store, testConfig(), nil)

	b.HandleMessage(context.Background(), privateMessage(1, "someone", "/айди alice"))
	if got := api.messagesTo(1); len(got) != 1 || !strings.Contains(got[0], "42") {
		t.Fatalf("sent = %v, want the resolved id", got)
	}

	b.HandleMessage(context.Background(), privateMessage(1, "someone", "/айди bob"))
	if got := api.messagesTo(1); len(got) != 2 || !strings.Contains(got[1], "не") {
		t.Fatalf("sent = %v, want a not-found notice", got)
	}
}
