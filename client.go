package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/awscore/enginecore/internal/credentials"
)

// Client is the public façade (spec §4.1): immutable after construction,
// thread-safe and re-entrant (spec §5), bound to exactly one AWS service
// and endpoint. Functional-option construction, a blocking call built atop
// an async one, one service per Client instead of a multi-provider
// registry; the error-type registry (possibleErrorTypes, spec §7) plays
// the role a provider registry would one level down.
type Client struct {
	config     *ClientConfig
	credential Credential
	region     Region
	signer     *Signer
	transport  *Transport
	middleware *middlewareChain
}

// NewClient builds a Client, resolving credentials and region once (spec
// §4.3) and validating the configuration (spec §4.0 "Validate()").
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("engine: invalid option: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chain := credentials.NewChain(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken, cfg.CredentialsFilePath)
	cred, err := chain.Resolve()
	if err != nil {
		return nil, fmt.Errorf("engine: resolving credentials: %w", err)
	}

	region := credentials.ResolveRegion(cfg.Region, cfg.PartitionEndpoint)

	signer := NewSigner(cred, region, cfg.Service)
	transport := NewTransport(cfg.HTTPClient)

	return &Client{
		config:     cfg,
		credential: cred,
		region:     region,
		signer:     signer,
		transport:  transport,
		middleware: newMiddlewareChain(cfg.Middleware),
	}, nil
}

// Credential returns the resolved credential (for diagnostics; never
// logged by this package, spec §5).
func (c *Client) Credential() Credential { return c.credential }

// Region returns the resolved region.
func (c *Client) Region() Region { return c.region }

// endpoint computes the endpoint per spec §4.1's fallback order: explicit
// override -> region-specific serviceEndpoints entry -> partition-global
// endpoint -> the canonical "{service}.{region}.amazonaws.com".
func (c *Client) endpoint() string {
	if c.config.EndpointOverride != "" {
		return c.config.EndpointOverride
	}
	if ep, ok := c.config.ServiceEndpoints[string(c.region)]; ok {
		return ep
	}
	if c.config.PartitionEndpoint != "" {
		return c.config.PartitionEndpoint
	}
	return fmt.Sprintf("https://%s.%s.amazonaws.com", c.config.Service, c.region)
}

// amzTarget computes the x-amz-target header value for json-protocol
// requests (spec §3 Operation.AmzTarget): "<Service>_<Protocol.Version>.<op>",
// e.g. "dynamodb_1.0.GetItem" for Service "dynamodb" and json version
// "1.0", or just the operation name when no protocol version is set.
func (c *Client) amzTarget(opName string) string {
	if c.config.Protocol.Type != ProtocolJSON {
		return ""
	}
	version := c.config.Protocol.Version
	if version == "" {
		return opName
	}
	return fmt.Sprintf("%s_%s.%s", c.config.Service, version, opName)
}

// Send is the no-input/no-output overload.
func (c *Client) Send(ctx context.Context, op Operation, path, method string) error {
	return <-c.SendAsync(ctx, op, path, method, nil, nil)
}

// SendInput is the typed-input/no-output overload.
func (c *Client) SendInput(ctx context.Context, op Operation, path, method string, input Shape) error {
	return <-c.SendAsync(ctx, op, path, method, input, nil)
}

// SendOutput is the no-input/typed-output overload.
func (c *Client) SendOutput(ctx context.Context, op Operation, path, method string, output Shape) error {
	return <-c.SendAsync(ctx, op, path, method, nil, output)
}

// SendInputOutput is the typed-input/typed-output overload.
func (c *Client) SendInputOutput(ctx context.Context, op Operation, path, method string, input, output Shape) error {
	return <-c.SendAsync(ctx, op, path, method, input, output)
}

// SendAsync runs call in a goroutine and returns a future-shaped channel,
// per spec §5's "offer both a blocking send and an asynchronous sendAsync"
// design note. Send/SendInput/etc. are simply <-SendAsync(...).
func (c *Client) SendAsync(ctx context.Context, op Operation, path, method string, input, output Shape) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- c.call(ctx, op, path, method, input, output)
	}()
	return result
}

func (c *Client) call(ctx context.Context, op Operation, path, method string, input, output Shape) error {
	if op.AmzTarget == "" {
		op.AmzTarget = c.amzTarget(op.Name)
	}
	if op.APIVersion == "" {
		op.APIVersion = c.config.APIVersion
	}

	c.trace("build", op.Name, method, path, nil)
	req, err := BuildRequest(BuildParams{
		Operation:    op,
		Method:       method,
		PathTemplate: path,
		Input:        input,
		Protocol:     c.config.Protocol,
		Service:      c.config.Service,
		Region:       c.region,
		Endpoint:     c.endpoint(),
	})
	if err != nil {
		c.trace("build", op.Name, method, path, err)
		return err
	}
	if op.AmzTarget != "" {
		req.HeaderSet("X-Amz-Target", op.AmzTarget)
	}

	if err := c.middleware.runBefore(ctx, req); err != nil {
		return err
	}

	c.trace("sign", op.Name, method, path, nil)
	if err := c.sign(req, method, c.config.Protocol); err != nil {
		c.trace("sign", op.Name, method, path, err)
		return err
	}

	c.trace("send", op.Name, method, path, nil)
	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		c.trace("send", op.Name, method, path, err)
		return err
	}

	if afterErr := c.middleware.runAfter(ctx, req, resp); afterErr != nil {
		return afterErr
	}

	c.trace("decode", op.Name, method, path, nil)
	decodeErr := DecodeResponse(ctx, resp, DecodeParams{
		Operation:          op,
		Protocol:           c.config.Protocol,
		Service:            c.config.Service,
		Output:             output,
		PossibleErrorTypes: c.config.PossibleErrorTypes,
		DisableHALLinking:  c.config.DisableHALLinkFollowing,
		Endpoint:           c.endpoint(),
		Signer:             c.signer,
		Transport:          c.transport,
	})
	if decodeErr != nil {
		c.trace("decode", op.Name, method, path, decodeErr)
	}
	return decodeErr
}

// sign chooses header-signing vs. presigned-URL mode per spec §4.5's
// method x protocol table: GET+restjson and non-GET any protocol sign as
// headers; GET+other pre-signs the URL.
func (c *Client) sign(req *AWSRequest, method string, protocol ServiceProtocol) error {
	now := time.Now().UTC()
	if method == "GET" && protocol.Type != ProtocolRestJSON {
		signedURL, err := c.signer.PreSign(req, 15*time.Minute, now)
		if err != nil {
			return err
		}
		req.URL = signedURL
		return nil
	}
	return c.signer.SignHeaders(req, now)
}

func (c *Client) trace(stage, op, method, url string, err error) {
	if !c.config.Debug || c.config.TraceHook == nil {
		return
	}
	c.config.TraceHook(&TraceEvent{Stage: stage, Operation: op, Method: method, URL: url, Err: err})
}
