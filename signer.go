package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Signature V4 constants (spec §4.5 tie-break rules).
const (
	sigV4Algorithm  = "AWS4-HMAC-SHA256"
	sigV4TimeFormat = "20060102T150405Z"
	sigV4DateFormat = "20060102"
	unsignedPayload = "UNSIGNED-PAYLOAD"
)

// emptyPayloadHash is the well-known SHA-256 of the empty string, used as
// the payload hash for empty-body requests (spec §4.5 step 5).
const emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// Signer computes AWS Signature V4 over an AWSRequest for an arbitrary
// service name and region, supporting both header signing and the
// presigned-URL query-string mode (spec §4.5). Stateless per call; safe
// for concurrent use (spec §3 "Signer ... stateless per call").
type Signer struct {
	Credential Credential
	Region     Region
	Service    string
}

// NewSigner builds a Signer bound to one credential, region, and service.
func NewSigner(cred Credential, region Region, service string) *Signer {
	return &Signer{Credential: cred, Region: region, Service: service}
}

// SignMode selects header-signing vs. presigned-URL signing, chosen by the
// client façade per spec §4.5's method x protocol table.
type SignMode int

const (
	SignModeHeaders SignMode = iota
	SignModePreSignURL
)

// SignHeaders signs req as headers: adds Authorization, X-Amz-Date, and
// (if a session token is present) X-Amz-Security-Token. now is injected so
// callers (and tests) control the clock rather than this package reaching
// for time.Now() internally.
func (s *Signer) SignHeaders(req *AWSRequest, now time.Time) error {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return NewInvalidURLError(fmt.Sprintf("signer: cannot parse request URL: %v", err), s.Service, err)
	}

	amzDate := now.UTC().Format(sigV4TimeFormat)
	req.HeaderSet("X-Amz-Date", amzDate)
	req.HeaderSet("Host", hostHeaderValue(parsed))
	if s.Credential.SessionToken != "" {
		req.HeaderSet("X-Amz-Security-Token", s.Credential.SessionToken)
	}

	canonicalHeaders, signedHeaders := canonicalizeHeaders(req.Headers)
	payloadHash := hexSHA256(req.Body.Bytes)
	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalURI(parsed.Path),
		canonicalQueryString(parsed.Query()),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := credentialScope(now, string(s.Region), s.Service)
	stringToSign := stringToSign(now, scope, canonicalRequest)
	signingKey := s.deriveSigningKey(now)
	signature := hexHMAC(signingKey, stringToSign)

	auth := fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		sigV4Algorithm, s.Credential.AccessKeyID, scope, signedHeaders, signature)
	req.HeaderSet("Authorization", auth)
	return nil
}

// PreSign signs req as a presigned URL valid for expires, returning the
// new URL with X-Amz-Algorithm, X-Amz-Credential, X-Amz-Date,
// X-Amz-SignedHeaders, X-Amz-Signature (and X-Amz-Security-Token if a
// session token is present) appended as query parameters. No Authorization
// header is emitted and the body is never hashed (spec §4.5 "Pre-signed
// URL omits the body from the hash, uses UNSIGNED-PAYLOAD").
func (s *Signer) PreSign(req *AWSRequest, expires time.Duration, now time.Time) (string, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return "", NewInvalidURLError(fmt.Sprintf("signer: cannot parse request URL: %v", err), s.Service, err)
	}

	amzDate := now.UTC().Format(sigV4TimeFormat)
	scope := credentialScope(now, string(s.Region), s.Service)
	host := hostHeaderValue(parsed)

	query := parsed.Query()
	query.Set("X-Amz-Algorithm", sigV4Algorithm)
	query.Set("X-Amz-Credential", s.Credential.AccessKeyID+"/"+scope)
	query.Set("X-Amz-Date", amzDate)
	query.Set("X-Amz-Expires", fmt.Sprintf("%d", int(expires.Seconds())))
	query.Set("X-Amz-SignedHeaders", "host")
	if s.Credential.SessionToken != "" {
		query.Set("X-Amz-Security-Token", s.Credential.SessionToken)
	}

	canonicalHeaders := "host:" + host + "\n"
	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalURI(parsed.Path),
		canonicalQueryString(query),
		canonicalHeaders,
		"host",
		unsignedPayload,
	}, "\n")

	stringToSign := stringToSign(now, scope, canonicalRequest)
	signingKey := s.deriveSigningKey(now)
	signature := hexHMAC(signingKey, stringToSign)
	query.Set("X-Amz-Signature", signature)

	parsed.RawQuery = canonicalQueryString(query)
	return parsed.String(), nil
}

func (s *Signer) deriveSigningKey(now time.Time) []byte {
	date := now.UTC().Format(sigV4DateFormat)
	kDate := hmacSHA256([]byte("AWS4"+s.Credential.SecretAccessKey), []byte(date))
	kRegion := hmacSHA256(kDate, []byte(s.Region))
	kService := hmacSHA256(kRegion, []byte(s.Service))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func credentialScope(now time.Time, region, service string) string {
	return fmt.Sprintf("%s/%s/%s/aws4_request", now.UTC().Format(sigV4DateFormat), region, service)
}

func stringToSign(now time.Time, scope, canonicalRequest string) string {
	return fmt.Sprintf("%s\n%s\n%s\n%s", sigV4Algorithm, now.UTC().Format(sigV4TimeFormat), scope, hexSHA256([]byte(canonicalRequest)))
}

// hostHeaderValue returns the Host header value: hostname, plus ":port"
// when the URL carries a non-default port (spec §4.5 "Host header is
// overwritten to the URL's host (with port if non-default)").
func hostHeaderValue(u *url.URL) string {
	port := u.Port()
	if (u.Scheme == "https" && port == "443") || (u.Scheme == "http" && port == "80") {
		return strings.TrimSuffix(u.Host, ":"+port)
	}
	return u.Host
}

// canonicalURI percent-encodes each path segment with the AWS-unreserved
// set, preserving "/" between segments (spec §4.5 step 1).
func canonicalURI(path string) string {
	if path == "" {
		return "/"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = awsURIEncode(seg, false)
	}
	return strings.Join(segments, "/")
}

// canonicalQueryString sorts query items by key then by value, encodes
// both key and value, and joins with "&" (spec §4.5 step 2).
func canonicalQueryString(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		values := append([]string(nil), query[k]...)
		sort.Strings(values)
		for _, v := range values {
			parts = append(parts, awsURIEncode(k, true)+"="+awsURIEncode(v, true))
		}
	}
	return strings.Join(parts, "&")
}

// canonicalizeHeaders builds the canonical-headers block (lowercase name,
// whitespace-collapsed value, sorted by name, "name:value\n" each) and the
// semicolon-joined signed-headers list (spec §4.5 steps 3-4).
func canonicalizeHeaders(headers map[string][]string) (canonical, signed string) {
	names := make([]string, 0, len(headers))
	values := make(map[string]string, len(headers))
	for name, vs := range headers {
		lower := strings.ToLower(name)
		names = append(names, lower)
		values[lower] = collapseWhitespace(strings.Join(vs, ","))
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte(':')
		b.WriteString(values[n])
		b.WriteByte('\n')
	}
	return b.String(), strings.Join(names, ";")
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.TrimSpace(strings.Join(fields, " "))
}

// awsURIEncode percent-encodes s with the explicit AWS allow-list (A-Z a-z
// 0-9 - _ . ~), uppercase hex, per spec §4.5 "Tie-break rules". When
// encodeSlash is false, "/" is left unescaped (used for canonical URI path
// segments are already split on "/", so this only matters for callers that
// pass an un-split path).
func awsURIEncode(s string, encodeSlash bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.' || c == '~':
			b.WriteByte(c)
		case c == '/' && !encodeSlash:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func hexSHA256(data []byte) string {
	if len(data) == 0 {
		return emptyPayloadHash
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func hexHMAC(key []byte, data string) string {
	return hex.EncodeToString(hmacSHA256(key, []byte(data)))
}
