// Package rest executes requests against the chat REST API.
package rest

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Endpoint is a method plus a path template with %s placeholders for path parameters.
type Endpoint struct {
	Method   string
	Template string
	// Authenticated endpoints carry the bot token
	Authenticated bool
}

// Endpoints used by the dispatch pipeline.
var (
	EndpointChannel             = Endpoint{Method: http.MethodGet, Template: "/channels/%s", Authenticated: true}
	EndpointChannelMessages     = Endpoint{Method: http.MethodPost, Template: "/channels/%s/messages", Authenticated: true}
	EndpointChannelMessagesList = Endpoint{Method: http.MethodGet, Template: "/channels/%s/messages", Authenticated: true}
	EndpointWebhookExecute      = Endpoint{Method: http.MethodPost, Template: "/webhooks/%s/%s"}
	EndpointWebhookWithToken    = Endpoint{Method: http.MethodGet, Template: "/webhooks/%s/%s"}
	EndpointUserChannels        = Endpoint{Method: http.MethodPost, Template: "/users/@me/channels", Authenticated: true}
)

// Path fills the template with escaped params
func (e Endpoint) Path(params ...string) (string, error) {
	want := strings.Count(e.Template, "%s")
	if len(params) != want {
		return "", fmt.Errorf("endpoint %s expects %d path parameters, got %d", e.Template, want, len(params))
	}
	escaped := make([]any, len(params))
	for i, p := range params {
		escaped[i] = url.PathEscape(p)
	}
	return fmt.Sprintf(e.Template, escaped...), nil
}

func (e Endpoint) String() string {
	return e.Method + " " + e.Template
}
