package twitch

import (
	"context"
	"strings"
	"text/template"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/Levtastic/LevBot/internal/storage"
)

// A live announcement is not taken down the moment a poll misses the
// stream; brief API hiccups and stream restarts would otherwise churn
// messages. The message is deleted only after this many consecutive
// polls report the streamer offline.
const offlinePollLimit = 20

// DefaultTemplate renders the announcement when a streamer has no
// custom template configured.
const DefaultTemplate = "@here {{.Name}} is now live playing {{.Game}}:\n{{.Title}}\n{{.URL}}"

// Gateway is the slice of the chat platform the poller needs to manage
// announcement messages.
type Gateway interface {
	Message(channelID, messageID string) (*discordgo.Message, error)
	Send(channelID, content string) (*discordgo.Message, error)
	Edit(channelID, messageID, content string) error
	Delete(channelID, messageID string) error
}

// Poller periodically fetches live status for every subscribed streamer
// and reconciles the announcement messages in the database with it.
type Poller struct {
	Store    *storage.Store
	Gateway  Gateway
	Client   *Client
	Interval time.Duration

	// consecutive offline polls per streamer_messages row; only the
	// poller goroutine touches this.
	offline map[int64]int
}

// NewPoller creates a poller. Run starts it.
func NewPoller(store *storage.Store, gw Gateway, client *Client, interval time.Duration) *Poller {
	return &Poller{
		Store:    store,
		Gateway:  gw,
		Client:   client,
		Interval: interval,
		offline:  make(map[int64]int),
	}
}

// Run polls until ctx is cancelled. It satisfies jobmgr.JobFunc.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		if err := p.tick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("stream poll failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) tick(ctx context.Context) error {
	alerts, err := p.Store.StreamAlerts(ctx)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var logins []string
	for _, a := range alerts {
		login := strings.ToLower(a.Username)
		if !seen[login] {
			seen[login] = true
			logins = append(logins, login)
		}
	}

	streams, err := p.Client.Streams(ctx, logins)
	if err != nil {
		return err
	}

	for _, a := range alerts {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		text := ""
		if s, live := streams[strings.ToLower(a.Username)]; live {
			text = renderAlert(a.Template, a.Username, s)
		}
		if err := p.reconcile(ctx, a, text); err != nil {
			log.Error().Err(err).
				Str("streamer", a.Username).
				Str("channel", a.ChannelDID).
				Msg("failed to reconcile stream alert")
		}
	}
	return nil
}

// reconcile brings one channel's announcement message in line with
// text, where empty text means the streamer is offline.
func (p *Poller) reconcile(ctx context.Context, a storage.StreamAlert, text string) error {
	var msg *discordgo.Message
	if a.MessageDID != "" {
		var err error
		msg, err = p.Gateway.Message(a.ChannelDID, a.MessageDID)
		if err != nil || msg == nil {
			// Someone removed the announcement by hand; forget it and
			// let the next live poll post a fresh one.
			delete(p.offline, a.MessageID)
			return p.Store.DeleteStreamerMessage(ctx, a.MessageID)
		}
	}

	switch {
	case msg == nil && text != "":
		posted, err := p.Gateway.Send(a.ChannelDID, text)
		if err != nil {
			return err
		}
		return p.Store.SaveStreamerMessage(ctx, &storage.StreamerMessage{
			StreamerID: a.StreamerID,
			ChannelDID: a.ChannelDID,
			MessageDID: posted.ID,
		})

	case msg != nil && text != "":
		delete(p.offline, a.MessageID)
		if msg.Content == text {
			return nil
		}
		return p.Gateway.Edit(a.ChannelDID, a.MessageDID, text)

	case msg != nil && text == "":
		p.offline[a.MessageID]++
		if p.offline[a.MessageID] < offlinePollLimit {
			return nil
		}
		delete(p.offline, a.MessageID)
		if err := p.Gateway.Delete(a.ChannelDID, a.MessageDID); err != nil {
			return err
		}
		return p.Store.DeleteStreamerMessage(ctx, a.MessageID)
	}

	return nil
}

type alertData struct {
	Name  string
	Game  string
	Title string
	URL   string
}

// renderAlert renders a streamer's announcement template against the
// live stream. A broken template falls back to the default.
func renderAlert(tmpl, username string, s Stream) string {
	if tmpl == "" {
		tmpl = DefaultTemplate
	}

	name := s.UserName
	if name == "" {
		name = username
	}
	data := alertData{
		Name:  name,
		Game:  s.GameName,
		Title: s.Title,
		URL:   "https://www.twitch.tv/" + strings.ToLower(s.UserLogin),
	}

	var b strings.Builder
	t, err := template.New("alert").Parse(tmpl)
	if err == nil {
		err = t.Execute(&b, data)
	}
	if err != nil {
		log.Warn().Err(err).Str("streamer", username).Msg("bad alert template, using default")
		b.Reset()
		t = template.Must(template.New("alert").Parse(DefaultTemplate))
		if err := t.Execute(&b, data); err != nil {
			return ""
		}
	}
	return b.String()
}
