package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/secmon-lab/helpline/pkg/usecase"
	"github.com/secmon-lab/helpline/pkg/utils/async"
	"github.com/secmon-lab/helpline/pkg/utils/errutil"
	"github.com/secmon-lab/helpline/pkg/utils/logging"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// verifySlackSignature verifies the Slack request signature
// This is a pure function that can be used independently for testing
func verifySlackSignature(signingSecret, timestamp, signature string, body []byte) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}

	if signature == "" {
		return goerr.New("missing signature")
	}

	// Check timestamp to prevent replay attacks (within 5 minutes)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}

	now := time.Now().Unix()
	if now-ts > 60*5 {
		return goerr.New("timestamp too old", goerr.V("timestamp", timestamp), goerr.V("now", now))
	}

	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expectedSignature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		return goerr.New("signature mismatch")
	}

	return nil
}

// SlackSignatureMiddleware creates a middleware that verifies Slack request signatures
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			defer func() {
				if err := r.Body.Close(); err != nil {
					logging.From(ctx).Error("failed to close request body", "error", err)
				}
			}()

			timestamp := r.Header.Get("X-Slack-Request-Timestamp")
			signature := r.Header.Get("X-Slack-Signature")

			if err := verifySlackSignature(signingSecret, timestamp, signature, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "slack signature verification failed"), http.StatusUnauthorized)
				return
			}

			// Restore the body for the handler
			r.Body = io.NopCloser(bytes.NewBuffer(body))

			next.ServeHTTP(w, r)
		})
	}
}

// SlackWebhookHandler handles Slack Events API webhook requests
type SlackWebhookHandler struct {
	eventUC *usecase.EventUseCase
}

// NewSlackWebhookHandler creates a new Slack webhook handler
func NewSlackWebhookHandler(eventUC *usecase.EventUseCase) *SlackWebhookHandler {
	return &SlackWebhookHandler{
		eventUC: eventUC,
	}
}

// ServeHTTP handles Slack webhook requests
func (h *SlackWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	eventsAPIEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slack event"), http.StatusBadRequest)
		return
	}

	switch eventsAPIEvent.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to unmarshal challenge"), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(challenge.Challenge)); err != nil {
			logging.From(ctx).Error("failed to write challenge response", "error", err)
		}
		return

	case slackevents.CallbackEvent:
		// Return 200 immediately to satisfy Slack's 3-second timeout requirement
		w.WriteHeader(http.StatusOK)

		async.Dispatch(ctx, func(ctx context.Context) error {
			return h.handleInnerEvent(ctx, eventsAPIEvent.InnerEvent)
		})

	default:
		logging.From(ctx).Warn("unknown slack event type", "type", eventsAPIEvent.Type)
		w.WriteHeader(http.StatusOK)
	}
}

// handleInnerEvent routes one callback event to the dispatcher. Unhandled
// event types are dropped silently so new subscriptions cannot break the
// webhook.
func (h *SlackWebhookHandler) handleInnerEvent(ctx context.Context, inner slackevents.EventsAPIInnerEvent) error {
	switch ev := inner.Data.(type) {
	case *slackevents.MessageEvent:
		// Edits, deletes and join notices carry a subtype; only plain
		// user messages feed the state machine
		if ev.SubType != "" {
			return nil
		}
		if ev.ThreadTimeStamp == "" || ev.ThreadTimeStamp == ev.TimeStamp {
			return h.eventUC.HandleRootMessage(ctx,
				types.ChannelID(ev.Channel), ev.TimeStamp, types.UserID(ev.User), ev.Text)
		}
		return h.eventUC.HandleThreadReply(ctx, types.ChannelID(ev.Channel), ev.ThreadTimeStamp)

	case *slackevents.ReactionAddedEvent:
		return h.eventUC.HandleReactionChange(ctx,
			types.ChannelID(ev.Item.Channel), ev.Item.Timestamp, types.UserID(ev.ItemUser))

	case *slackevents.ReactionRemovedEvent:
		return h.eventUC.HandleReactionChange(ctx,
			types.ChannelID(ev.Item.Channel), ev.Item.Timestamp, types.UserID(ev.ItemUser))

	default:
		logging.From(ctx).Debug("ignoring slack event", "type", inner.Type)
		return nil
	}
}

// slashCommandHandler executes staff commands. Commands run synchronously
// and answer with an ephemeral message; all business failures are already
// translated into user-visible text by the use case.
func slashCommandHandler(commandUC *usecase.CommandUseCase) http.HandlerFunc {
	type response struct {
		ResponseType string `json:"response_type"`
		Text         string `json:"text"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slash command"), http.StatusBadRequest)
			return
		}

		text, err := commandUC.Handle(ctx,
			types.UserID(cmd.UserID), types.ChannelID(cmd.ChannelID), cmd.Text)
		if err != nil {
			errutil.Handle(ctx, err, "slash command failed")
			text = "Something went wrong running that command."
		}

		writeJSON(w, r, response{
			ResponseType: "ephemeral",
			Text:         text,
		})
	}
}
