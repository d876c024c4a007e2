// Package dispatch turns message drafts into API requests and resolves the
// created messages.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/aleister1102/courier/internal/attachment"
	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/future"
	"github.com/aleister1102/courier/internal/message"
	"github.com/aleister1102/courier/internal/models"
	"github.com/aleister1102/courier/internal/rest"
	"github.com/aleister1102/courier/internal/worker"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const octetStream = "application/octet-stream"

// Executor runs API requests
type Executor interface {
	Execute(ctx context.Context, req rest.Request) *future.Future[*rest.Response]
}

// ByteResolver produces the bytes of an attachment
type ByteResolver interface {
	Resolve(ctx context.Context, a *attachment.Attachment) *future.Future[[]byte]
}

// MediaTypeGuesser names the content type of an upload
type MediaTypeGuesser interface {
	Guess(name string) (string, bool)
	Detect(data []byte) string
}

// Materializer maps a response body to the cached message it describes
type Materializer interface {
	GetOrCreateMessage(channel *models.Channel, raw json.RawMessage) (*models.Message, error)
}

// ChannelLookup exposes cached channels and their message history
type ChannelLookup interface {
	Channel(id models.Snowflake) (*models.Channel, bool)
	// Messages yields the channel's messages newest first
	Messages(channelID models.Snowflake) iter.Seq[*models.Message]
}

// Directory opens private channels
type Directory interface {
	OpenPrivateChannel(ctx context.Context, user *models.User) *future.Future[*models.Channel]
}

// Scheduler runs tasks off the calling goroutine
type Scheduler interface {
	Submit(task worker.Task) error
}

// Dependencies are the collaborators of an Engine. All are required.
type Dependencies struct {
	Executor     Executor
	Resolver     ByteResolver
	Guesser      MediaTypeGuesser
	Materializer Materializer
	Channels     ChannelLookup
	Directory    Directory
	Scheduler    Scheduler
}

func (d Dependencies) validate() error {
	switch {
	case d.Executor == nil:
		return errorwrapper.NilArgument("executor")
	case d.Resolver == nil:
		return errorwrapper.NilArgument("resolver")
	case d.Guesser == nil:
		return errorwrapper.NilArgument("guesser")
	case d.Materializer == nil:
		return errorwrapper.NilArgument("materializer")
	case d.Channels == nil:
		return errorwrapper.NilArgument("channels")
	case d.Directory == nil:
		return errorwrapper.NilArgument("directory")
	case d.Scheduler == nil:
		return errorwrapper.NilArgument("scheduler")
	}
	return nil
}

// Engine decides between a plain JSON request and a multipart upload and
// resolves every send into a single future of the created message.
type Engine struct {
	deps   Dependencies
	logger zerolog.Logger
}

// NewEngine creates a new Engine
func NewEngine(deps Dependencies, logger zerolog.Logger) (*Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		deps:   deps,
		logger: logger.With().Str("component", "DispatchEngine").Logger(),
	}, nil
}

// Send sends draft to target. Users and members are reached through their
// private channel; webhooks are executed with default options. Failures,
// including an unknown or nil target, are reported through the future.
func (e *Engine) Send(ctx context.Context, draft *message.Draft, target Target) *future.Future[*models.Message] {
	if draft == nil {
		return future.Failed[*models.Message](errorwrapper.NilArgument("draft"))
	}

	switch t := target.(type) {
	case ChannelTarget:
		return e.SendToChannel(ctx, draft, t.Channel)
	case UserTarget:
		return e.sendToUser(ctx, draft, t.User)
	case MemberTarget:
		if t.Member == nil {
			return future.Failed[*models.Message](errorwrapper.NewStateError("send", "member target has no member"))
		}
		return e.sendToUser(ctx, draft, t.Member.User)
	case WebhookTarget:
		return e.SendToWebhook(ctx, draft, t.Webhook, message.DefaultWebhookOptions())
	case nil:
		return future.Failed[*models.Message](errorwrapper.NewStateError("send", "no target to send to"))
	default:
		return future.Failed[*models.Message](errorwrapper.NewStateError("send", fmt.Sprintf("target of unknown type %T", target)))
	}
}

func (e *Engine) sendToUser(ctx context.Context, draft *message.Draft, user *models.User) *future.Future[*models.Message] {
	if user == nil {
		return future.Failed[*models.Message](errorwrapper.NewStateError("send", "user target has no user"))
	}
	// Snapshot now so edits made while the channel opens are not sent.
	snap := draft.Snapshot()
	channel := e.deps.Directory.OpenPrivateChannel(context.WithoutCancel(ctx), user)
	return future.Compose(channel, func(ch *models.Channel) *future.Future[*models.Message] {
		return e.sendSnapshotToChannel(ctx, snap, ch)
	})
}

// send carries one dispatch from payload to resolved message
type send struct {
	ctx     context.Context
	id      string
	logger  zerolog.Logger
	request *rest.Request
	payload any
	files   []*attachment.Attachment
	handle  func(*rest.Response) (*models.Message, error)
}

func (e *Engine) newSend(ctx context.Context, kind string) *send {
	id := uuid.NewString()
	return &send{
		// Sends run to completion regardless of the caller's cancellation.
		ctx: context.WithoutCancel(ctx),
		id:  id,
		logger: e.logger.With().
			Str("send_id", id).
			Str("kind", kind).
			Logger(),
	}
}

// dispatch executes s directly when it has no files, otherwise it resolves
// the files and builds the multipart body on the scheduler.
func (e *Engine) dispatch(s *send, multipart bool) *future.Future[*models.Message] {
	s.request.WithID(s.id)
	s.logger.Debug().
		Bool("multipart", multipart).
		Int("files", len(s.files)).
		Msg("Dispatching message")

	if !multipart {
		s.request.WithJSON(s.payload)
		return e.execute(s)
	}

	result := future.New[*models.Message]()
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().Str("panic", fmt.Sprint(r)).Msg("Multipart assembly panicked")
				result.Fail(fmt.Errorf("panic while preparing upload: %v", r))
			}
		}()

		body, err := e.assemble(s)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to prepare upload, nothing was sent")
			result.Fail(err)
			return
		}
		s.request.WithMultipart(body)
		future.Forward(e.execute(s), result)
	}

	if err := e.deps.Scheduler.Submit(task); err != nil {
		s.logger.Error().Err(err).Msg("Failed to schedule upload")
		result.Fail(err)
	}
	return result
}

func (e *Engine) execute(s *send) *future.Future[*models.Message] {
	return future.Then(e.deps.Executor.Execute(s.ctx, *s.request), func(resp *rest.Response) (*models.Message, error) {
		msg, err := s.handle(resp)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to resolve sent message")
			return nil, err
		}
		s.logger.Debug().Str("message_id", msg.ID.String()).Msg("Message sent")
		return msg, nil
	})
}

// assemble resolves each file in order and writes the multipart body with
// the payload first and one fileN part per file.
func (e *Engine) assemble(s *send) (*rest.MultipartBody, error) {
	builder := rest.NewMultipartBuilder().AddJSON(rest.PayloadPartName, s.payload)

	for i, a := range s.files {
		data, err := e.deps.Resolver.Resolve(s.ctx, a).Join()
		if err != nil {
			return nil, errorwrapper.WrapErrorf(err, "failed to resolve attachment %s", a.FileName())
		}

		contentType, ok := e.deps.Guesser.Guess(a.FileName())
		if !ok {
			contentType = e.deps.Guesser.Detect(data)
		}
		if contentType == "" {
			contentType = octetStream
		}

		builder.AddFile(fmt.Sprintf("file%d", i), a.FileName(), contentType, data)
	}

	return builder.Build()
}
