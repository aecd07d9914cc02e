// Package notify forwards detection events to operator channels. The
// Notifier consumes the event bus and fans qualifying events out to every
// configured sender; one channel failing never blocks the others.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// senderTimeout bounds one delivery attempt.
const senderTimeout = 10 * time.Second

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	// Name identifies the channel in logs, e.g. "telegram".
	Name() string
}

// NotifierConfig wires a Notifier.
type NotifierConfig struct {
	Senders []Sender
	// Events lists the event types to forward; empty forwards everything.
	Events []string
	// MinProfit suppresses opportunity alerts below this floor. Zero or
	// negative disables the floor. This gates alerting only; recording is
	// governed by the trade parameters.
	MinProfit decimal.Decimal
	Logger    *slog.Logger
}

// Notifier consumes cycle events and notifies the configured channels.
type Notifier struct {
	senders   []Sender
	events    map[domain.EventType]bool
	minProfit decimal.Decimal
	logger    *slog.Logger
}

func NewNotifier(cfg NotifierConfig) *Notifier {
	allowed := make(map[domain.EventType]bool, len(cfg.Events))
	for _, e := range cfg.Events {
		e = strings.TrimSpace(e)
		if e != "" {
			allowed[domain.EventType(e)] = true
		}
	}
	return &Notifier{
		senders:   cfg.Senders,
		events:    allowed,
		minProfit: cfg.MinProfit,
		logger:    cfg.Logger.With(slog.String("component", "notifier")),
	}
}

// Run subscribes to channel and dispatches until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context, bus domain.EventBus, channel string) error {
	ch, err := bus.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("notify: subscribe %s: %w", channel, err)
	}

	n.logger.Info("notifier started", slog.Int("senders", len(n.senders)))
	defer n.logger.Info("notifier stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-ch:
			if !ok {
				return nil
			}
			n.handle(ctx, payload)
		}
	}
}

func (n *Notifier) handle(ctx context.Context, payload []byte) {
	var ev domain.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		n.logger.Warn("dropping undecodable event", slog.String("error", err.Error()))
		return
	}

	if len(n.events) > 0 && !n.events[ev.Type] {
		return
	}
	if ev.Type == domain.EventOpportunityFound && ev.Opportunity != nil &&
		n.minProfit.IsPositive() && ev.Opportunity.Profit.LessThan(n.minProfit) {
		return
	}

	title, message := formatEvent(ev)
	if title == "" {
		return
	}
	n.dispatch(ctx, title, message)
}

// dispatch delivers to every sender, logging per-sender failures without
// aborting the remaining channels.
func (n *Notifier) dispatch(ctx context.Context, title, message string) {
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.Error("sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		n.logger.Debug("notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
}

func formatEvent(ev domain.Event) (title, message string) {
	switch ev.Type {
	case domain.EventOpportunityFound:
		if ev.Opportunity == nil {
			return "", ""
		}
		o := ev.Opportunity
		return "Arbitrage opportunity",
			fmt.Sprintf("Buy on %s, sell on %s\nAmount in: %s\nOut (buy side): %s\nOut (sell side): %s\nProfit: %s",
				o.DexBuy, o.DexSell, o.AmountIn, o.AmountOutBuy, o.AmountOutSell, o.Profit)
	case domain.EventQuoteError:
		return "Quote failure", fmt.Sprintf("%s: %s", ev.Venue, ev.Error)
	case domain.EventPrecisionError:
		return "Token precision failure", fmt.Sprintf("%s: %s", ev.Venue, ev.Error)
	case domain.EventStoreError:
		return "Storage failure", ev.Error
	default:
		return "", ""
	}
}

// postJSON is the shared delivery primitive for the HTTP senders.
func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
