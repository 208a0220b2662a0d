package app

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"war_alarm_bot/internal/domain/clan"
	"war_alarm_bot/internal/domain/clash"
	"war_alarm_bot/internal/domain/reminder"
	idb "war_alarm_bot/internal/infra/repository"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakeClashClient serves canned API responses. A missing entry answers
// clash.ErrNotFound, matching the HTTP client's 404 behavior.
type fakeClashClient struct {
	currentWars map[string]*clash.War
	groups      map[string]*clash.LeagueGroup
	leagueWars  map[string]*clash.War

	currentWarErr error
	groupErr      error
	leagueWarErr  error

	leagueWarCalls []string
}

func newFakeClashClient() *fakeClashClient {
	return &fakeClashClient{
		currentWars: make(map[string]*clash.War),
		groups:      make(map[string]*clash.LeagueGroup),
		leagueWars:  make(map[string]*clash.War),
	}
}

func (f *fakeClashClient) CurrentWar(ctx context.Context, clanTag string) (*clash.War, error) {
	if f.currentWarErr != nil {
		return nil, f.currentWarErr
	}
	w, ok := f.currentWars[clanTag]
	if !ok {
		return nil, clash.ErrNotFound
	}
	return w, nil
}

func (f *fakeClashClient) LeagueGroup(ctx context.Context, clanTag string) (*clash.LeagueGroup, error) {
	if f.groupErr != nil {
		return nil, f.groupErr
	}
	g, ok := f.groups[clanTag]
	if !ok {
		return nil, clash.ErrNotFound
	}
	return g, nil
}

func (f *fakeClashClient) LeagueWar(ctx context.Context, warTag string) (*clash.War, error) {
	f.leagueWarCalls = append(f.leagueWarCalls, warTag)
	if f.leagueWarErr != nil {
		return nil, f.leagueWarErr
	}
	w, ok := f.leagueWars[warTag]
	if !ok {
		return nil, clash.ErrNotFound
	}
	return w, nil
}

type fakeClanRepo struct {
	clans map[string]*clan.Clan
}

func newFakeClanRepo() *fakeClanRepo {
	return &fakeClanRepo{clans: make(map[string]*clan.Clan)}
}

func clanFakeKey(chatID int64, tag string) string {
	return fmt.Sprintf("%d|%s", chatID, tag)
}

func (f *fakeClanRepo) Upsert(ctx context.Context, c *clan.Clan) error {
	cp := *c
	f.clans[clanFakeKey(c.ChatID, c.Tag)] = &cp
	return nil
}

func (f *fakeClanRepo) Get(ctx context.Context, chatID int64, tag string) (*clan.Clan, error) {
	c, ok := f.clans[clanFakeKey(chatID, tag)]
	if !ok {
		return nil, idb.ErrClanNotFound
	}
	return c, nil
}

func (f *fakeClanRepo) ListAll(ctx context.Context) ([]*clan.Clan, error) {
	out := make([]*clan.Clan, 0, len(f.clans))
	for _, c := range f.clans {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChatID != out[j].ChatID {
			return out[i].ChatID < out[j].ChatID
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

func (f *fakeClanRepo) ListByChat(ctx context.Context, chatID int64) ([]*clan.Clan, error) {
	all, _ := f.ListAll(ctx)
	out := make([]*clan.Clan, 0)
	for _, c := range all {
		if c.ChatID == chatID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeClanRepo) ChatsMonitoring(ctx context.Context, tag string) ([]int64, error) {
	all, _ := f.ListAll(ctx)
	chats := make([]int64, 0)
	for _, c := range all {
		if c.Tag == tag {
			chats = append(chats, c.ChatID)
		}
	}
	return chats, nil
}

func (f *fakeClanRepo) Delete(ctx context.Context, chatID int64, tag string) error {
	delete(f.clans, clanFakeKey(chatID, tag))
	return nil
}

type fakeLinkRepo struct {
	links map[string]*clan.PlayerLink
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[string]*clan.PlayerLink)}
}

func linkFakeKey(chatID, userID int64) string {
	return fmt.Sprintf("%d|%d", chatID, userID)
}

func (f *fakeLinkRepo) Upsert(ctx context.Context, l *clan.PlayerLink) error {
	cp := *l
	cp.PlayerTags = append([]string(nil), l.PlayerTags...)
	f.links[linkFakeKey(l.ChatID, l.UserID)] = &cp
	return nil
}

func (f *fakeLinkRepo) Get(ctx context.Context, chatID, userID int64) (*clan.PlayerLink, error) {
	l, ok := f.links[linkFakeKey(chatID, userID)]
	if !ok {
		return nil, idb.ErrLinkNotFound
	}
	return l, nil
}

func (f *fakeLinkRepo) ListByChat(ctx context.Context, chatID int64) ([]*clan.PlayerLink, error) {
	out := make([]*clan.PlayerLink, 0)
	for _, l := range f.links {
		if l.ChatID == chatID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLinkRepo) Delete(ctx context.Context, chatID, userID int64) error {
	delete(f.links, linkFakeKey(chatID, userID))
	return nil
}

type fakeWatchRepo struct {
	watches map[string]*clan.PrepWatch
}

func newFakeWatchRepo() *fakeWatchRepo {
	return &fakeWatchRepo{watches: make(map[string]*clan.PrepWatch)}
}

func (f *fakeWatchRepo) Upsert(ctx context.Context, w *clan.PrepWatch) error {
	cp := *w
	cp.NotifierIDs = append([]int64(nil), w.NotifierIDs...)
	f.watches[clanFakeKey(w.ChatID, w.ClanTag)] = &cp
	return nil
}

func (f *fakeWatchRepo) Get(ctx context.Context, chatID int64, clanTag string) (*clan.PrepWatch, error) {
	w, ok := f.watches[clanFakeKey(chatID, clanTag)]
	if !ok {
		return nil, idb.ErrWatchNotFound
	}
	return w, nil
}

type fakeReminderRepo struct {
	sent map[string]bool
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{sent: make(map[string]bool)}
}

func reminderFakeKey(chatID int64, clanTag, warID string, cat reminder.Category) string {
	return fmt.Sprintf("%d|%s|%s|%s", chatID, clanTag, warID, cat)
}

func (f *fakeReminderRepo) Get(ctx context.Context, chatID int64, clanTag, warID string, cat reminder.Category) (*reminder.State, error) {
	return &reminder.State{Sent: f.sent[reminderFakeKey(chatID, clanTag, warID, cat)]}, nil
}

func (f *fakeReminderRepo) MarkSent(ctx context.Context, chatID int64, clanTag, warID string, cat reminder.Category) error {
	f.sent[reminderFakeKey(chatID, clanTag, warID, cat)] = true
	return nil
}

func (f *fakeReminderRepo) Reset(ctx context.Context, chatID int64, clanTag, warID string, cat reminder.Category) error {
	f.sent[reminderFakeKey(chatID, clanTag, warID, cat)] = false
	return nil
}

type sentMessage struct {
	chatID int64
	text   string
	opts   *telebot.SendOptions
}

type fakeTelegram struct {
	messages []sentMessage
	err      error
}

func (f *fakeTelegram) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, sentMessage{chatID: chatID, text: text, opts: options})
	return nil
}
