package rest

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Request is one API call: an endpoint, its path parameters, optional query,
// and either a JSON body or a multipart body.
type Request struct {
	Endpoint  Endpoint
	Params    []string
	Query     url.Values
	JSONBody  any
	Multipart *MultipartBody
	// ID is sent as X-Request-ID; a random one is used when empty
	ID string
}

// NewRequest creates a request for endpoint with the given path parameters
func NewRequest(endpoint Endpoint, params ...string) *Request {
	return &Request{Endpoint: endpoint, Params: params}
}

// WithQuery adds a query parameter
func (r *Request) WithQuery(key, value string) *Request {
	if r.Query == nil {
		r.Query = url.Values{}
	}
	r.Query.Set(key, value)
	return r
}

// WithBoolQuery adds a boolean query parameter
func (r *Request) WithBoolQuery(key string, value bool) *Request {
	return r.WithQuery(key, strconv.FormatBool(value))
}

// WithJSON sets a JSON body, replacing any multipart body
func (r *Request) WithJSON(body any) *Request {
	r.JSONBody = body
	r.Multipart = nil
	return r
}

// WithMultipart sets a multipart body, replacing any JSON body
func (r *Request) WithMultipart(body *MultipartBody) *Request {
	r.Multipart = body
	r.JSONBody = nil
	return r
}

// WithID sets the correlation ID
func (r *Request) WithID(id string) *Request {
	r.ID = id
	return r
}

// Response is a completed API response
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// JSONBody returns the body as raw JSON, or nil for an empty body
func (r *Response) JSONBody() json.RawMessage {
	if len(r.Body) == 0 {
		return nil
	}
	return json.RawMessage(r.Body)
}

// Decode unmarshals the body into v
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}
