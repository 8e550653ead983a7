package discord

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/utyara3/TimeTracker/internal/discord"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestSession(t *testing.T, rt roundTripFunc) *discordgo.Session {
	t.Helper()
	s, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if rt != nil {
		s.Client = &http.Client{Transport: rt}
	}
	return s
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestUpsertGuildSlashCommands_CreatesMissingAndEditsChanged(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		calls = append(calls, req.Method+" "+req.URL.Path)
		mu.Unlock()
		switch {
		case req.Method == http.MethodGet:
			return jsonResponse(`[
				{"id":"c1","name":"stats","description":"old description"},
				{"id":"c2","name":"help","description":"Справка"}
			]`), nil
		default:
			body, _ := io.ReadAll(req.Body)
			var cmd discordgo.ApplicationCommand
			if err := json.Unmarshal(body, &cmd); err != nil {
				t.Fatalf("invalid command payload: %v", err)
			}
			if cmd.Name == "fix" && len(cmd.Options) != 1 {
				t.Fatalf("expected fix options to be sent, got %d", len(cmd.Options))
			}
			return jsonResponse(`{"id":"new","name":"` + cmd.Name + `","description":"x"}`), nil
		}
	})
	s.State.User = &discordgo.User{ID: "app-1"}

	c := &Client{session: s}
	err := c.UpsertGuildSlashCommands("guild-1", []discordpkg.SlashCommandDefinition{
		{Name: "stats", Description: "Статистика за день"},
		{Name: "help", Description: "Справка"},
		{Name: "fix", Description: "Исправить", Options: []discordpkg.CommandOption{
			{Name: "args", Description: "1h30m study", Type: discordpkg.OptionString, Required: true},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"GET /api/v9/applications/app-1/guilds/guild-1/commands",
		"PATCH /api/v9/applications/app-1/guilds/guild-1/commands/c1",
		"POST /api/v9/applications/app-1/guilds/guild-1/commands",
	}
	if len(calls) != len(want) {
		t.Fatalf("unexpected calls: %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d: expected %q, got %q", i, want[i], calls[i])
		}
	}
}

func TestUpsertGuildSlashCommands_RequiresApplicationID(t *testing.T) {
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected REST call: %s %s", req.Method, req.URL.String())
		return nil, nil
	})
	c := &Client{session: s}
	if err := c.UpsertGuildSlashCommands("guild-1", nil); err == nil {
		t.Fatal("expected error without application id")
	}
}

func TestGetBotUserID_UsesStateCacheFirst(t *testing.T) {
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected REST call: %s %s", req.Method, req.URL.String())
		return nil, nil
	})
	s.State.User = &discordgo.User{ID: "bot-1"}

	c := &Client{session: s}
	id, err := c.GetBotUserID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "bot-1" {
		t.Fatalf("expected bot-1, got %q", id)
	}
}

func TestComponents_BuildsRowsAndSkipsEmpty(t *testing.T) {
	got := components([][]discordpkg.Button{
		{{Label: "1", CustomID: "rate:5:1"}, {Label: "2", CustomID: "rate:5:2", Style: discordpkg.ButtonDanger}},
		nil,
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	row, ok := got[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("expected actions row, got %T", got[0])
	}
	if len(row.Components) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(row.Components))
	}
	second := row.Components[1].(discordgo.Button)
	if second.Style != discordgo.DangerButton || second.CustomID != "rate:5:2" {
		t.Fatalf("unexpected button: %+v", second)
	}

	if empty := components(nil); empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil components, got %#v", empty)
	}
}

func TestOptionValues_ConvertsTypes(t *testing.T) {
	got := optionValues([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "tag", Type: discordgo.ApplicationCommandOptionString, Value: "math"},
		{Name: "mood", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(4)},
		nil,
	})
	if got["tag"] != "math" || got["mood"] != "4" {
		t.Fatalf("unexpected option values: %v", got)
	}
}

func TestInteractionUser_PrefersNick(t *testing.T) {
	ic := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{Nick: "nick", User: &discordgo.User{ID: "42", Username: "user"}},
	}}
	id, name := interactionUser(ic)
	if id != "42" || name != "nick" {
		t.Fatalf("unexpected user: %q %q", id, name)
	}

	ic = &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		User: &discordgo.User{ID: "7", Username: "dm-user", GlobalName: "Global"},
	}}
	id, name = interactionUser(ic)
	if id != "7" || name != "Global" {
		t.Fatalf("unexpected user: %q %q", id, name)
	}
}
