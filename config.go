package engine

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// HTTPClient is the injectable transport seam, so tests can substitute a
// fake transport without touching the real network.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds all client configuration, built via functional options.
type ClientConfig struct {
	// Service is the AWS service name (e.g. "s3", "iam"), used in the
	// credential scope and the default endpoint template.
	Service string

	// Protocol selects the wire protocol this client's operations use.
	Protocol ServiceProtocol

	// APIVersion is stamped into query-protocol bodies as Version=<api>.
	APIVersion string

	// Region overrides region resolution; empty defers to the chain in
	// spec §4.3 (explicit -> partitionEndpoint -> AWS_DEFAULT_REGION ->
	// us-east-1).
	Region string

	// EndpointOverride, if set, is used verbatim instead of any computed
	// endpoint.
	EndpointOverride string

	// ServiceEndpoints maps region -> endpoint for region-specific entries.
	ServiceEndpoints map[string]string

	// PartitionEndpoint is the partition-global endpoint, used when no
	// region-specific entry matches. It also doubles as the region-lookalike
	// fallback for region resolution per spec §4.3, mirroring the source
	// behavior of one field serving both purposes.
	PartitionEndpoint string

	// AccessKeyID/SecretAccessKey/SessionToken are the Explicit credential
	// provider's inputs (spec §4.3 step 1).
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// CredentialsFilePath overrides "~/.aws/credentials" for testability
	// (spec §9 "Global state" design note).
	CredentialsFilePath string

	// HTTPClient is the HTTP client to use for requests (injectable for
	// testing).
	HTTPClient HTTPClient

	// Debug enables TraceHook invocation around each pipeline stage.
	Debug bool

	// TraceHook, when Debug is set, receives a TraceEvent around request
	// build/sign/send/decode. Never receives credentials.
	TraceHook func(*TraceEvent)

	// DisableHALLinkFollowing opts out of the HAL embedded-link nested-GET
	// expansion (spec §9 design note making this configurable).
	DisableHALLinkFollowing bool

	// PossibleErrorTypes is the caller-supplied, name-keyed registry of
	// service-specific error constructors consulted first during error
	// classification (spec §7).
	PossibleErrorTypes map[string]ErrorConstructor

	// Middleware is the ordered onion list (spec §5).
	Middleware []Middleware
}

// ClientOption is a functional option for configuring the client.
type ClientOption func(*ClientConfig) error

func defaultConfig() *ClientConfig {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	transport := &http.Transport{DialContext: dialer.DialContext}
	return &ClientConfig{
		ServiceEndpoints:   make(map[string]string),
		PossibleErrorTypes: make(map[string]ErrorConstructor),
		HTTPClient:         &http.Client{Transport: transport},
	}
}

// WithService sets the AWS service name.
func WithService(service string) ClientOption {
	return func(c *ClientConfig) error {
		if service == "" {
			return fmt.Errorf("service name is required")
		}
		c.Service = service
		return nil
	}
}

// WithProtocol sets the wire protocol this client dispatches on.
func WithProtocol(p ServiceProtocol) ClientOption {
	return func(c *ClientConfig) error {
		c.Protocol = p
		return nil
	}
}

// WithAPIVersion sets the API version stamped into query-protocol bodies.
func WithAPIVersion(version string) ClientOption {
	return func(c *ClientConfig) error {
		c.APIVersion = version
		return nil
	}
}

// WithRegion sets an explicit region, taking priority over every other
// region-resolution source.
func WithRegion(region string) ClientOption {
	return func(c *ClientConfig) error {
		c.Region = region
		return nil
	}
}

// WithEndpointOverride sets an endpoint that is used verbatim.
func WithEndpointOverride(endpoint string) ClientOption {
	return func(c *ClientConfig) error {
		if endpoint == "" {
			return fmt.Errorf("endpoint override cannot be empty")
		}
		c.EndpointOverride = endpoint
		return nil
	}
}

// WithServiceEndpoint registers a region-specific endpoint entry.
func WithServiceEndpoint(region, endpoint string) ClientOption {
	return func(c *ClientConfig) error {
		if region == "" || endpoint == "" {
			return fmt.Errorf("region and endpoint are both required")
		}
		if c.ServiceEndpoints == nil {
			c.ServiceEndpoints = make(map[string]string)
		}
		c.ServiceEndpoints[region] = endpoint
		return nil
	}
}

// WithPartitionEndpoint sets the partition-global endpoint fallback.
func WithPartitionEndpoint(endpoint string) ClientOption {
	return func(c *ClientConfig) error {
		c.PartitionEndpoint = endpoint
		return nil
	}
}

// WithCredentials sets explicit credentials (spec §4.3 step 1, highest
// priority in the resolution chain).
func WithCredentials(accessKeyID, secretAccessKey, sessionToken string) ClientOption {
	return func(c *ClientConfig) error {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		c.SessionToken = sessionToken
		return nil
	}
}

// WithCredentialsFilePath overrides the shared credentials file location.
func WithCredentialsFilePath(path string) ClientOption {
	return func(c *ClientConfig) error {
		c.CredentialsFilePath = path
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client, useful for tests or custom
// transports. Returns an error if client is nil.
func WithHTTPClient(client HTTPClient) ClientOption {
	return func(c *ClientConfig) error {
		if client == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		c.HTTPClient = client
		return nil
	}
}

// WithDebug enables or disables trace-hook invocation.
func WithDebug(debug bool) ClientOption {
	return func(c *ClientConfig) error {
		c.Debug = debug
		return nil
	}
}

// WithTraceHook registers the callback invoked around each pipeline stage
// when Debug is enabled.
func WithTraceHook(hook func(*TraceEvent)) ClientOption {
	return func(c *ClientConfig) error {
		c.TraceHook = hook
		return nil
	}
}

// WithDisableHALLinkFollowing opts a client out of the HAL embedded-link
// nested-GET expansion.
func WithDisableHALLinkFollowing(disable bool) ClientOption {
	return func(c *ClientConfig) error {
		c.DisableHALLinkFollowing = disable
		return nil
	}
}

// WithErrorType registers a service-specific error constructor, consulted
// first during error classification (spec §7).
func WithErrorType(code string, ctor ErrorConstructor) ClientOption {
	return func(c *ClientConfig) error {
		if code == "" || ctor == nil {
			return fmt.Errorf("error type code and constructor are both required")
		}
		if c.PossibleErrorTypes == nil {
			c.PossibleErrorTypes = make(map[string]ErrorConstructor)
		}
		c.PossibleErrorTypes[code] = ctor
		return nil
	}
}

// WithMiddleware appends a middleware to the onion chain.
func WithMiddleware(m Middleware) ClientOption {
	return func(c *ClientConfig) error {
		c.Middleware = append(c.Middleware, m)
		return nil
	}
}

// Validate checks the configuration for construction-time errors.
func (c *ClientConfig) Validate() error {
	if c.Service == "" {
		return fmt.Errorf("service name is required")
	}
	if c.HTTPClient == nil {
		return fmt.Errorf("HTTP client cannot be nil")
	}
	return nil
}
