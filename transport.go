package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Transport is the minimal HTTP/1.1 send primitive the Signer feeds (spec
// §4.6): it sends a fully-formed AWSRequest and returns the buffered
// head+body as a Response. There is exactly one transport shape since
// every protocol converges on the same generic AWSRequest by the time it
// reaches Send.
//
// A Transport wraps an injected HTTPClient (ClientConfig.HTTPClient) rather
// than dialing sockets itself; the 5-second connect timeout from spec §4.6
// is configured into that HTTPClient's dialer by defaultConfig (or by a
// caller's own net.Dialer, for a custom HTTPClient). No request timeout is
// imposed here (spec §4.6 "no request timeout in the core"); callers
// cancel via ctx.
type Transport struct {
	client HTTPClient
}

// NewTransport wraps client as a Transport. client must not be nil.
func NewTransport(client HTTPClient) *Transport {
	return &Transport{client: client}
}

// Send dispatches req and accumulates the full response in memory (spec
// §4.6: "head then buffered body"). Sets Host, User-Agent, Accept,
// Content-Length, and Connection: close on every outgoing request, as the
// source does; callers should not rely on keep-alive (non-goal, spec §1).
func (t *Transport) Send(ctx context.Context, req *AWSRequest) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body.Bytes))
	if err != nil {
		return nil, NewMalformedURLError(fmt.Sprintf("transport: invalid request: %v", err), err)
	}

	for name, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Set(name, v)
		}
	}
	if httpReq.Header.Get("Host") != "" {
		httpReq.Host = httpReq.Header.Get("Host")
	}
	httpReq.Header.Set("User-Agent", "aws-enginecore/1.0")
	httpReq.Header.Set("Accept", "*/*")
	httpReq.Header.Set("Connection", "close")
	httpReq.ContentLength = int64(len(req.Body.Bytes))
	if ct := req.Body.ContentType(); ct != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", ct)
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return nil, fmt.Errorf("transport: request failed: %w", err)
	}
	if httpResp == nil {
		return nil, NewMalformedHeadError("transport: HTTPClient returned a nil response with no error")
	}
	defer httpResp.Body.Close()

	body, err := readResponseBody(httpResp.Body)
	if err != nil {
		return nil, NewMalformedBodyError(fmt.Sprintf("transport: reading response body: %v", err))
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    map[string][]string(httpResp.Header),
		Body:       body,
	}, nil
}

// readResponseBody drains body into a buffer. spec §4.6's READY ->
// PARSING_BODY -> READY framing is enforced by net/http itself for this
// HTTPClient-based transport (a malformed head surfaces as the nil-response
// case above, a malformed body as a read error below), so there is no
// separate state machine to implement on top of it.
func readResponseBody(body io.Reader) ([]byte, error) {
	return io.ReadAll(body)
}
