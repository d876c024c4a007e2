package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aleister1102/courier/internal/cache"
	"github.com/aleister1102/courier/internal/future"
	"github.com/aleister1102/courier/internal/httpclient"
	"github.com/aleister1102/courier/internal/mediatype"
	"github.com/aleister1102/courier/internal/models"
	"github.com/aleister1102/courier/internal/resolver"
	"github.com/aleister1102/courier/internal/rest"
	"github.com/aleister1102/courier/internal/worker"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordedPart struct {
	Name        string
	FileName    string
	ContentType string
	Data        []byte
}

type recordedRequest struct {
	Method      string
	Path        string
	Query       string
	ContentType string
	Body        []byte
	Parts       []recordedPart
}

// Payload returns the JSON payload of a plain or multipart request
func (r recordedRequest) Payload(t *testing.T) map[string]any {
	t.Helper()
	raw := r.Body
	if len(r.Parts) > 0 {
		require.Equal(t, rest.PayloadPartName, r.Parts[0].Name)
		raw = r.Parts[0].Data
	}
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func (r recordedRequest) PartNames() []string {
	var names []string
	for _, p := range r.Parts {
		names = append(names, p.Name)
	}
	return names
}

// webhookChannelID is the channel every webhook of the fake server posts to
const webhookChannelID = "42"

type harness struct {
	engine   *Engine
	cache    *cache.Cache
	server   *httptest.Server
	dms      *fakeDirectory
	status   atomic.Int32
	nextID   atomic.Uint64
	// historyStatus, when set, fails reads of channel history
	historyStatus atomic.Int32

	mu       sync.Mutex
	requests []recordedRequest
	// history holds the created messages of each channel, oldest first
	history map[string][]string
}

type fakeDirectory struct {
	mu     sync.Mutex
	opened []models.Snowflake
}

func (d *fakeDirectory) OpenPrivateChannel(_ context.Context, user *models.User) *future.Future[*models.Channel] {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = append(d.opened, user.ID)
	return future.Completed(&models.Channel{ID: user.ID + 1000, Type: models.ChannelTypeDM, Recipients: []*models.User{user}})
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{dms: &fakeDirectory{}, history: make(map[string][]string)}
	h.nextID.Store(5000)
	h.server = httptest.NewServer(http.HandlerFunc(h.handle))
	t.Cleanup(h.server.Close)

	client, err := httpclient.NewHTTPClientBuilder(zerolog.Nop()).
		WithRetry(httpclient.RetryHandlerConfig{}).
		Build()
	require.NoError(t, err)

	pool := worker.NewPool(worker.PoolConfig{Workers: 2}, zerolog.Nop())
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })

	h.cache = cache.New(cache.Config{}, nil, zerolog.Nop())

	h.engine, err = NewEngine(Dependencies{
		Executor:     rest.NewExecutor(client, rest.ExecutorConfig{BaseURL: h.server.URL, APIVersion: 10, Token: "token"}, zerolog.Nop()),
		Resolver:     resolver.New(client, zerolog.Nop()),
		Guesser:      mediatype.NewGuesser(),
		Materializer: h.cache,
		Channels:     h.cache,
		Directory:    h.dms,
		Scheduler:    pool,
	}, zerolog.Nop())
	require.NoError(t, err)
	return h
}

func (h *harness) handle(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.RawQuery,
		ContentType: r.Header.Get("Content-Type"),
	}

	mediaType, params, _ := mime.ParseMediaType(rec.ContentType)
	if mediaType == "multipart/form-data" {
		reader := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}
			data, _ := io.ReadAll(part)
			rec.Parts = append(rec.Parts, recordedPart{
				Name:        part.FormName(),
				FileName:    part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	} else {
		rec.Body, _ = io.ReadAll(r.Body)
	}

	h.mu.Lock()
	h.requests = append(h.requests, rec)
	h.mu.Unlock()

	if status := h.status.Load(); status != 0 {
		w.WriteHeader(int(status))
		_, _ = w.Write([]byte(`{"message":"boom"}`))
		return
	}

	id := h.nextID.Add(1)
	segments := strings.Split(strings.TrimPrefix(r.URL.Path, "/v10/"), "/")
	switch {
	case len(segments) == 3 && segments[0] == "channels" && r.Method == http.MethodGet:
		if status := h.historyStatus.Load(); status != 0 {
			w.WriteHeader(int(status))
			return
		}
		fmt.Fprintf(w, "[%s]", strings.Join(h.newestFirst(segments[1]), ","))
	case len(segments) == 3 && segments[0] == "channels":
		created := fmt.Sprintf(`{"id":"%d","channel_id":"%s","author":{"id":"1","username":"courier","bot":true}}`, id, segments[1])
		h.remember(segments[1], created)
		_, _ = w.Write([]byte(created))
	case len(segments) == 3 && segments[0] == "webhooks":
		created := fmt.Sprintf(`{"id":"%d","channel_id":"%s","webhook_id":"%s","author":{"id":"%s","username":"hook"}}`,
			id, webhookChannelID, segments[1], segments[1])
		h.remember(webhookChannelID, created)
		if r.URL.Query().Get("wait") != "true" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(created))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *harness) remember(channelID, created string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history[channelID] = append(h.history[channelID], created)
}

func (h *harness) newestFirst(channelID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	stored := h.history[channelID]
	out := make([]string, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out
}

func (h *harness) Requests() []recordedRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]recordedRequest(nil), h.requests...)
}

func (h *harness) Only(t *testing.T) recordedRequest {
	t.Helper()
	reqs := h.Requests()
	require.Len(t, reqs, 1)
	return reqs[0]
}

func await(t *testing.T, f *future.Future[*models.Message]) (*models.Message, error) {
	t.Helper()
	return f.Await(context.Background())
}
