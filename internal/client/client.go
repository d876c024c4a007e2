// Package client assembles the transport, cache and dispatch engine into a
// single entry point for sending messages.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aleister1102/courier/internal/cache"
	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/config"
	"github.com/aleister1102/courier/internal/datastore"
	"github.com/aleister1102/courier/internal/dispatch"
	"github.com/aleister1102/courier/internal/future"
	"github.com/aleister1102/courier/internal/httpclient"
	"github.com/aleister1102/courier/internal/mediatype"
	"github.com/aleister1102/courier/internal/message"
	"github.com/aleister1102/courier/internal/models"
	"github.com/aleister1102/courier/internal/resolver"
	"github.com/aleister1102/courier/internal/rest"
	"github.com/aleister1102/courier/internal/worker"
	"github.com/rs/zerolog"
)

// Client sends drafts to channels, users, members and webhooks.
type Client struct {
	logger   zerolog.Logger
	http     *httpclient.HTTPClient
	executor *rest.Executor
	pool     *worker.Pool
	cache    *cache.Cache
	archive  *datastore.MessageArchive
	engine   *dispatch.Engine

	dmMu       sync.Mutex
	dmChannels map[models.Snowflake]*models.Channel

	closeOnce sync.Once
}

// New wires a client from cfg. The worker pool starts immediately; call
// Close to stop it.
func New(cfg *config.GlobalConfig, logger zerolog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errorwrapper.NilArgument("config")
	}

	c := &Client{
		logger:     logger.With().Str("component", "Client").Logger(),
		dmChannels: make(map[models.Snowflake]*models.Channel),
	}

	var err error
	c.http, err = httpclient.NewHTTPClient(cfg.HTTPClientConfig.ToClientConfig(cfg.APIConfig.UserAgent), logger)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create HTTP client")
	}

	if path := cfg.CacheConfig.SQLitePath; path != "" {
		c.archive, err = datastore.NewMessageArchive(path, logger)
		if err != nil {
			return nil, errorwrapper.WrapError(err, "failed to open message archive")
		}
	}

	c.cache = cache.New(cache.Config{HistorySize: cfg.CacheConfig.HistorySize}, c.archiveOrNil(), logger)
	c.executor = rest.NewExecutor(c.http, rest.ExecutorConfig{
		BaseURL:    cfg.APIConfig.BaseURL,
		APIVersion: cfg.APIConfig.APIVersion,
		Token:      cfg.APIConfig.Token,
	}, logger)
	c.pool = worker.NewPool(cfg.WorkerConfig.ToPoolConfig(), logger)

	c.engine, err = dispatch.NewEngine(dispatch.Dependencies{
		Executor:     c.executor,
		Resolver:     resolver.New(c.http, logger),
		Guesser:      mediatype.NewGuesser(),
		Materializer: c.cache,
		Channels:     c.cache,
		Directory:    c,
		Scheduler:    c.pool,
	}, logger)
	if err != nil {
		_ = c.Close(context.Background())
		return nil, err
	}

	c.logger.Info().
		Str("api", c.executor.BaseURL()).
		Int("workers", c.pool.Workers()).
		Bool("archive", c.archive != nil).
		Msg("Client ready")
	return c, nil
}

// archiveOrNil keeps a nil *MessageArchive from becoming a non-nil interface
func (c *Client) archiveOrNil() cache.Archive {
	if c.archive == nil {
		return nil
	}
	return c.archive
}

// Cache exposes the channel and message cache so callers can register
// channels and messages they learn about elsewhere
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// Send sends draft to target. See dispatch.Engine.Send.
func (c *Client) Send(ctx context.Context, draft *message.Draft, target dispatch.Target) *future.Future[*models.Message] {
	return c.engine.Send(ctx, draft, target)
}

// SendWebhook executes webhook with the draft's display overrides and wait flag.
func (c *Client) SendWebhook(ctx context.Context, draft *message.WebhookDraft, webhook *models.Webhook) *future.Future[*models.Message] {
	if draft == nil {
		return future.Failed[*models.Message](errorwrapper.NilArgument("draft"))
	}
	return c.engine.SendToWebhook(ctx, draft.Draft, webhook, draft.Options())
}

// FetchWebhook reads the webhook identified by hook's ID and token and
// returns a copy with its channel and guild filled in. The token
// authenticates the call.
func (c *Client) FetchWebhook(ctx context.Context, hook *models.Webhook) *future.Future[*models.Webhook] {
	if hook == nil {
		return future.Failed[*models.Webhook](errorwrapper.NilArgument("webhook"))
	}

	req := rest.NewRequest(rest.EndpointWebhookWithToken, hook.ID.String(), hook.Token)
	return future.Then(c.executor.Execute(ctx, *req), func(resp *rest.Response) (*models.Webhook, error) {
		var fetched models.Webhook
		if err := resp.Decode(&fetched); err != nil {
			return nil, errorwrapper.WrapError(err, "failed to decode webhook")
		}
		if fetched.ChannelID.IsZero() {
			return nil, errorwrapper.NewInvariantError("webhook response carries no channel id")
		}
		if fetched.ID.IsZero() {
			fetched.ID = hook.ID
		}
		if fetched.Token == "" {
			fetched.Token = hook.Token
		}
		return &fetched, nil
	})
}

// FetchChannel reads a channel from the API and caches it
func (c *Client) FetchChannel(ctx context.Context, id models.Snowflake) *future.Future[*models.Channel] {
	if id.IsZero() {
		return future.Failed[*models.Channel](errorwrapper.NewValidationError("channel_id", id, "channel id is required"))
	}

	req := rest.NewRequest(rest.EndpointChannel, id.String())
	return future.Then(c.executor.Execute(ctx, *req), func(resp *rest.Response) (*models.Channel, error) {
		var channel models.Channel
		if err := resp.Decode(&channel); err != nil {
			return nil, errorwrapper.WrapError(err, "failed to decode channel")
		}
		if channel.ID != id {
			return nil, errorwrapper.NewInvariantError(fmt.Sprintf("asked for channel %s, got %s", id, channel.ID))
		}
		c.cache.PutChannel(&channel)
		return &channel, nil
	})
}

type createDMPayload struct {
	RecipientID models.Snowflake `json:"recipient_id"`
}

// OpenPrivateChannel returns the direct message channel with user, creating
// it on first use. Opened channels are cached for the client's lifetime.
func (c *Client) OpenPrivateChannel(ctx context.Context, user *models.User) *future.Future[*models.Channel] {
	if user == nil {
		return future.Failed[*models.Channel](errorwrapper.NilArgument("user"))
	}

	c.dmMu.Lock()
	channel, ok := c.dmChannels[user.ID]
	c.dmMu.Unlock()
	if ok {
		return future.Completed(channel)
	}

	req := rest.NewRequest(rest.EndpointUserChannels).WithJSON(createDMPayload{RecipientID: user.ID})
	return future.Then(c.executor.Execute(ctx, *req), func(resp *rest.Response) (*models.Channel, error) {
		var created models.Channel
		if err := resp.Decode(&created); err != nil {
			return nil, errorwrapper.WrapError(err, "failed to decode private channel")
		}
		if created.ID.IsZero() {
			return nil, errorwrapper.NewInvariantError("private channel response carries no channel id")
		}
		if len(created.Recipients) == 0 {
			created.Recipients = []*models.User{user}
		}

		c.dmMu.Lock()
		if existing, ok := c.dmChannels[user.ID]; ok {
			c.dmMu.Unlock()
			return existing, nil
		}
		c.dmChannels[user.ID] = &created
		c.dmMu.Unlock()

		c.cache.PutChannel(&created)
		c.logger.Debug().
			Str("user_id", user.ID.String()).
			Str("channel_id", created.ID.String()).
			Msg("Opened private channel")
		return &created, nil
	})
}

// Close waits for queued uploads to be prepared and releases the archive.
// Calling it more than once is safe.
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	c.closeOnce.Do(func() {
		if c.pool != nil {
			if err := c.pool.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if c.archive != nil {
			if err := c.archive.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
