package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/secmon-lab/helpline/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for the Slack integration
type Slack struct {
	botToken      string
	signingSecret string
	helpChannelID string
	staffGroupID  string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token",
			Category:    "Slack",
			Required:    true,
			Sources:     cli.EnvVars("HELPLINE_SLACK_BOT_TOKEN"),
			Destination: &x.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for webhook verification)",
			Category:    "Slack",
			Sources:     cli.EnvVars("HELPLINE_SLACK_SIGNING_SECRET"),
			Destination: &x.signingSecret,
		},
		&cli.StringFlag{
			Name:        "slack-help-channel-id",
			Usage:       "Channel ID of the support channel to track",
			Category:    "Slack",
			Required:    true,
			Sources:     cli.EnvVars("HELPLINE_SLACK_HELP_CHANNEL_ID"),
			Destination: &x.helpChannelID,
		},
		&cli.StringFlag{
			Name:        "slack-staff-group-id",
			Usage:       "User group ID whose members may run staff commands",
			Category:    "Slack",
			Sources:     cli.EnvVars("HELPLINE_SLACK_STAFF_GROUP_ID"),
			Destination: &x.staffGroupID,
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Int("signing-secret.len", len(x.signingSecret)),
		slog.String("help-channel-id", x.helpChannelID),
		slog.String("staff-group-id", x.staffGroupID),
	)
}

// SigningSecret returns the webhook signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}

// HelpChannelID returns the tracked support channel
func (x *Slack) HelpChannelID() types.ChannelID {
	return types.ChannelID(x.helpChannelID)
}

// StaffGroupID returns the staff user group ID
func (x *Slack) StaffGroupID() string {
	return x.staffGroupID
}

// IsWebhookConfigured reports whether the webhook endpoints can be enabled
func (x *Slack) IsWebhookConfigured() bool {
	return x.signingSecret != ""
}

// Configure creates the Slack service from the configured flags
func (x *Slack) Configure(ctx context.Context) (slack.Service, error) {
	if x.botToken == "" {
		return nil, goerr.New("slack-bot-token is required")
	}

	svc, err := slack.New(ctx, x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create slack service")
	}
	return svc, nil
}
