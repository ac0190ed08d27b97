// Package credentials resolves AWS credentials and the default region.
//
// Resolution follows an ordered chain of candidates, first success wins:
// Explicit, Environment, SharedFile, Anonymous. Credential and Region live
// here rather than in the engine package so this package never needs to
// import back into it.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"
)

// Credential holds the access key pair plus optional session token and
// expiry resolved by a Chain. Resolved once at client construction and
// never rotated by the engine.
type Credential struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expires         *int64 // unix seconds, nil if the credential does not expire

	// Source names which provider produced this credential, for diagnostics only.
	Source string
}

// IsAnonymous reports whether this credential carries no access key, i.e.
// requests signed with it are effectively unsigned.
func (c Credential) IsAnonymous() bool {
	return c.AccessKeyID == "" && c.SecretAccessKey == ""
}

// Region is a closed AWS region identifier, e.g. "us-east-1".
type Region string

// Partition is one of the three disjoint AWS clouds.
type Partition string

const (
	PartitionAWS      Partition = "aws"
	PartitionAWSCN    Partition = "aws-cn"
	PartitionAWSUSGov Partition = "aws-us-gov"
)

// Partition returns the partition this region belongs to.
func (r Region) Partition() Partition {
	switch {
	case len(r) >= 3 && r[:3] == "cn-":
		return PartitionAWSCN
	case len(r) >= 7 && r[:7] == "us-gov-":
		return PartitionAWSUSGov
	default:
		return PartitionAWS
	}
}

// Provider resolves a Credential. It returns ok=false (not an error) when
// this provider has nothing to offer, so the Chain can fall through to the
// next candidate; err is reserved for malformed input this provider owns
// (e.g. an unreadable credentials file).
type Provider func() (cred Credential, ok bool, err error)

// Chain tries a fixed, ordered list of Providers and returns the first
// that resolves successfully.
type Chain struct {
	providers []Provider
}

// NewChain builds the standard resolution chain: Explicit, Environment,
// SharedFile, Anonymous, in that order. explicitAccessKey/explicitSecret
// are empty strings when not supplied at construction. credentialsFilePath
// overrides the default "~/.aws/credentials" location (construction-time
// override for testability, per the credentials-file design note).
func NewChain(explicitAccessKey, explicitSecret, explicitSessionToken, credentialsFilePath string) *Chain {
	return &Chain{
		providers: []Provider{
			explicitProvider(explicitAccessKey, explicitSecret, explicitSessionToken),
			environmentProvider(),
			sharedFileProvider(credentialsFilePath),
			anonymousProvider(),
		},
	}
}

// Resolve runs the chain, returning the first successfully resolved
// credential. Anonymous always succeeds, so this only errors when a
// provider ahead of Anonymous fails outright (e.g. a malformed credentials
// file), rather than merely declining to match.
func (c *Chain) Resolve() (Credential, error) {
	for _, p := range c.providers {
		cred, ok, err := p()
		if err != nil {
			return Credential{}, err
		}
		if ok {
			return cred, nil
		}
	}
	return Credential{}, fmt.Errorf("credentials: no provider in the chain resolved (this should be unreachable, anonymous always matches)")
}

func explicitProvider(accessKeyID, secretAccessKey, sessionToken string) Provider {
	return func() (Credential, bool, error) {
		if accessKeyID == "" || secretAccessKey == "" {
			return Credential{}, false, nil
		}
		return Credential{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			SessionToken:    sessionToken,
			Source:          "explicit",
		}, true, nil
	}
}

func environmentProvider() Provider {
	return func() (Credential, bool, error) {
		accessKeyID := os.Getenv("AWS_ACCESS_KEY_ID")
		secretAccessKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
		if accessKeyID == "" || secretAccessKey == "" {
			return Credential{}, false, nil
		}
		return Credential{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}, true, nil
	}
}

func anonymousProvider() Provider {
	return func() (Credential, bool, error) {
		return Credential{Source: "anonymous"}, true, nil
	}
}

// defaultCredentialsFilePath returns "~/.aws/credentials" expanded against
// the current user's home directory.
func defaultCredentialsFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", "credentials")
}

// ResolveRegion implements the region fallback chain: explicit ->
// partitionEndpoint (if itself a valid-looking region) -> AWS_DEFAULT_REGION
// -> "us-east-1".
func ResolveRegion(explicit, partitionEndpoint string) Region {
	if explicit != "" {
		return Region(explicit)
	}
	if looksLikeRegion(partitionEndpoint) {
		return Region(partitionEndpoint)
	}
	if env := os.Getenv("AWS_DEFAULT_REGION"); env != "" {
		return Region(env)
	}
	return Region("us-east-1")
}

// looksLikeRegion is a light heuristic: AWS region identifiers are
// lowercase, hyphen-separated, with no dots or slashes (unlike hostnames
// or ARNs that might be stored in the same field).
func looksLikeRegion(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '-' {
			return false
		}
	}
	return true
}
