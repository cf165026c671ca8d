package alerts

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/coah80/mediaconv/internal/config"
	"github.com/coah80/mediaconv/internal/logger"
)

var alertLogger = logger.Get("Discord")

const (
	colorOrange = 0xFFA500
	colorRed    = 0xFF4444
	colorGreen  = 0x2ECC71
)

// Notifier posts embeds to a Discord webhook. A nil *Notifier is valid and
// drops everything, which is what you get when no webhook is configured.
type Notifier struct {
	webhookID  string
	token      string
	pingUserID string
	execute    func(*discordgo.WebhookParams) error

	mu        sync.Mutex
	cooldowns map[string]time.Time
	now       func() time.Time
}

func New(cfg *config.Config) (*Notifier, error) {
	if cfg.DiscordWebhookURL == "" {
		return nil, nil
	}
	id, token, err := ParseWebhookURL(cfg.DiscordWebhookURL)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	n := newNotifier(id, token, cfg.DiscordPingUserID)
	n.execute = func(params *discordgo.WebhookParams) error {
		_, err := session.WebhookExecute(n.webhookID, n.token, false, params)
		return err
	}
	return n, nil
}

func newNotifier(id, token, pingUserID string) *Notifier {
	return &Notifier{
		webhookID:  id,
		token:      token,
		pingUserID: pingUserID,
		cooldowns:  make(map[string]time.Time),
		now:        time.Now,
	}
}

// ParseWebhookURL extracts id and token from
// https://discord.com/api/webhooks/<id>/<token>.
func ParseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("invalid webhook url: expected /api/webhooks/<id>/<token>")
}

func (n *Notifier) send(category string, cooldown time.Duration, ping bool, color int, title, description string, fields map[string]string) {
	if n == nil || n.execute == nil {
		return
	}

	n.mu.Lock()
	now := n.now()
	if cooldown > 0 {
		if last, ok := n.cooldowns[category]; ok && now.Sub(last) < cooldown {
			n.mu.Unlock()
			return
		}
	}
	n.cooldowns[category] = now
	n.mu.Unlock()

	var embedFields []*discordgo.MessageEmbedField
	for k, v := range fields {
		if v == "" {
			continue
		}
		embedFields = append(embedFields, &discordgo.MessageEmbedField{Name: k, Value: truncate(v, 1024), Inline: true})
	}

	params := &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       title,
			Description: truncate(description, 2048),
			Color:       color,
			Fields:      embedFields,
			Timestamp:   now.UTC().Format(time.RFC3339),
			Footer:      &discordgo.MessageEmbedFooter{Text: "mediaconv"},
		}},
	}
	if ping && n.pingUserID != "" {
		params.Content = fmt.Sprintf("<@%s>", n.pingUserID)
	}

	go func() {
		if err := n.execute(params); err != nil {
			alertLogger.Emit(logger.WARNING, "Webhook send failed: %v\n", err)
		}
	}()
}

func (n *Notifier) ServerStarted(port string) {
	n.send("server-start", 0, false, colorGreen, "Server Started", fmt.Sprintf("mediaconv %s listening on :%s", config.Version, port), nil)
}

func (n *Notifier) ServerStopping() {
	n.send("server-stop", 0, false, colorOrange, "Server Stopping", "mediaconv is shutting down", nil)
}

func (n *Notifier) ConversionFailed(jobID, source string, err error) {
	n.send("convert", 5*time.Second, true, colorRed, "Conversion Failed", err.Error(), map[string]string{
		"Job":    jobID,
		"Source": truncate(source, 200),
	})
}

func (n *Notifier) SweepFailed(path string, err error) {
	n.send("sweep", 10*time.Minute, false, colorOrange, "Retention Sweep Failure", err.Error(), map[string]string{
		"Path": truncate(path, 200),
	})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
