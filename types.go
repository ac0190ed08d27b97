// Package engine implements the core of an AWS service-call engine: given a
// service-agnostic description of an operation plus a typed Shape input, it
// produces a correctly signed HTTP request, dispatches it, and decodes the
// response (or error) back into a typed Shape output.
//
// This package follows the ambient-stack conventions of the SDK it was
// grown from: functional-option configuration, an embeddable base error
// type with typed leaves, and a trace-hook callback in place of a baked-in
// logging dependency. See DESIGN.md for the full grounding ledger.
package engine

import (
	"strings"

	"github.com/awscore/enginecore/internal/credentials"
)

// Region and Credential live in internal/credentials (which must never
// import this package); they are aliased here so callers only ever see the
// engine package.
type (
	Region     = credentials.Region
	Partition  = credentials.Partition
	Credential = credentials.Credential
)

const (
	PartitionAWS      = credentials.PartitionAWS
	PartitionAWSCN    = credentials.PartitionAWSCN
	PartitionAWSUSGov = credentials.PartitionAWSUSGov
)

// ProtocolType is the tagged-variant discriminant of ServiceProtocol.
type ProtocolType string

const (
	ProtocolJSON     ProtocolType = "json"
	ProtocolRestJSON ProtocolType = "restjson"
	ProtocolRestXML  ProtocolType = "restxml"
	ProtocolQuery    ProtocolType = "query"
	ProtocolOther    ProtocolType = "other"
)

// ServiceProtocol is the closed set of AWS wire protocols this engine
// dispatches on. Version carries the json{version} payload (e.g. "1.1");
// OtherName carries the other(name) payload (e.g. "ec2").
type ServiceProtocol struct {
	Type      ProtocolType
	Version   string
	OtherName string
}

// IsEC2 reports whether this is the other("ec2") variant, which behaves
// like the query protocol but always emits a form body regardless of method.
func (p ServiceProtocol) IsEC2() bool {
	return p.Type == ProtocolOther && p.OtherName == "ec2"
}

// Operation is the service-agnostic description of a single API call: its
// name (used for Action=<op> in query protocols and as part of amzTarget
// for json protocols), the API version stamped into query-protocol bodies,
// and the computed x-amz-target header value for json-protocol requests.
type Operation struct {
	Name       string
	APIVersion string
	AmzTarget  string
}

// BodyKind is the tagged-variant discriminant of Body.
type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyText
	BodyJSON
	BodyXML
	BodyBuffer
)

// Body is the request or response payload, tagged by how it was produced so
// the signer and transport can pick the right Content-Type and hashing
// behavior without re-sniffing bytes.
type Body struct {
	Kind  BodyKind
	Bytes []byte
}

// IsEmpty reports whether this body carries no bytes.
func (b Body) IsEmpty() bool {
	return b.Kind == BodyEmpty || len(b.Bytes) == 0
}

// ContentType returns the Content-Type header value implied by this body's
// kind, or "" for BodyEmpty/BodyBuffer (the caller knows better for an
// opaque buffer).
func (b Body) ContentType() string {
	switch b.Kind {
	case BodyJSON:
		return "application/json"
	case BodyXML:
		return "application/xml"
	case BodyText:
		return "text/plain"
	default:
		return ""
	}
}

func EmptyBody() Body               { return Body{Kind: BodyEmpty} }
func TextBody(s string) Body        { return Body{Kind: BodyText, Bytes: []byte(s)} }
func JSONBody(b []byte) Body        { return Body{Kind: BodyJSON, Bytes: b} }
func XMLBody(b []byte) Body         { return Body{Kind: BodyXML, Bytes: b} }
func BufferBody(b []byte) Body      { return Body{Kind: BodyBuffer, Bytes: b} }
func FormURLEncodedBody(s string) Body {
	return Body{Kind: BodyBuffer, Bytes: []byte(s)}
}

// AWSRequest is the generic, protocol-agnostic request the request builder
// produces and the signer/transport consume. Built per call; never shared
// across calls.
type AWSRequest struct {
	Region        Region
	URL           string
	Protocol      ServiceProtocol
	Service       string
	Operation     Operation
	Method        string
	Headers       map[string][]string
	Body          Body
	Middleware    []Middleware
}

// HeaderSet sets a header, canonicalizing by the same case-insensitive rule
// the rest of the pipeline uses (see headerKey).
func (r *AWSRequest) HeaderSet(name, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string][]string)
	}
	r.Headers[headerKey(name)] = []string{value}
}

// HeaderGet reads a header case-insensitively.
func (r *AWSRequest) HeaderGet(name string) (string, bool) {
	if r.Headers == nil {
		return "", false
	}
	v, ok := r.Headers[headerKey(name)]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// HeaderDelete removes a header case-insensitively.
func (r *AWSRequest) HeaderDelete(name string) {
	if r.Headers == nil {
		return
	}
	delete(r.Headers, headerKey(name))
}

// headerKey normalizes a header name to a single canonical representation
// so header-key lookup is case-insensitive across the whole pipeline
// (spec §3 invariant), without pulling in net/textproto's MIME-header
// title-casing, which the AWS signer deliberately does not want.
func headerKey(name string) string {
	b := []byte(name)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// TraceEvent is emitted to a ClientConfig.TraceHook around each pipeline
// stage when Debug is enabled. Credentials are never attached to a
// TraceEvent (spec §5 "Credentials are never logged").
type TraceEvent struct {
	Stage     string // "build", "sign", "send", "decode"
	Operation string
	Method    string
	URL       string
	Err       error
}

// Response is the raw transport response: status, headers, and a fully
// buffered body, as produced by Transport.Send.
type Response struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
}

// HeaderGet reads a response header case-insensitively. Unlike AWSRequest's
// header map (always populated through HeaderSet's headerKey normalization),
// Response.Headers carries whatever casing the transport or a test supplied
// (net/http hands back MIME-canonical casing), so this scans with
// strings.EqualFold rather than a single normalized-key lookup.
func (r *Response) HeaderGet(name string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0], true
		}
	}
	return "", false
}
