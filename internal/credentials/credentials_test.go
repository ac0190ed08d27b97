package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChainExplicitWins(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "env-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret")

	chain := NewChain("explicit-key", "explicit-secret", "", "")
	cred, err := chain.Resolve()
	require.NoError(t, err)
	require.Equal(t, "explicit-key", cred.AccessKeyID)
	require.Equal(t, "explicit", cred.Source)
}

func TestChainFallsBackToEnvironment(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "env-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret")
	t.Setenv("AWS_SESSION_TOKEN", "env-token")

	chain := NewChain("", "", "", "")
	cred, err := chain.Resolve()
	require.NoError(t, err)
	require.Equal(t, "env-key", cred.AccessKeyID)
	require.Equal(t, "env-token", cred.SessionToken)
	require.Equal(t, "environment", cred.Source)
}

func TestChainFallsBackToSharedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials")
	contents := "; a comment\n[default]\naws_access_key_id = file-key\naws_secret_access_key = file-secret\n\n[other]\naws_access_key_id = other-key\naws_secret_access_key = other-secret\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	chain := NewChain("", "", "", path)
	cred, err := chain.Resolve()
	require.NoError(t, err)
	require.Equal(t, "file-key", cred.AccessKeyID)
	require.Equal(t, "shared-file:default", cred.Source)
}

func TestChainSharedFileHonorsProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials")
	contents := "[default]\naws_access_key_id = default-key\naws_secret_access_key = default-secret\n\n[other]\naws_access_key_id = other-key\naws_secret_access_key = other-secret\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	t.Setenv("AWS_PROFILE", "other")

	chain := NewChain("", "", "", path)
	cred, err := chain.Resolve()
	require.NoError(t, err)
	require.Equal(t, "other-key", cred.AccessKeyID)
}

func TestChainFallsBackToAnonymous(t *testing.T) {
	chain := NewChain("", "", "", filepath.Join(t.TempDir(), "missing"))
	cred, err := chain.Resolve()
	require.NoError(t, err)
	require.True(t, cred.IsAnonymous())
	require.Equal(t, "anonymous", cred.Source)
}

func TestResolveRegion(t *testing.T) {
	require.Equal(t, Region("eu-west-1"), ResolveRegion("eu-west-1", ""))
	require.Equal(t, Region("ap-south-1"), ResolveRegion("", "ap-south-1"))

	t.Setenv("AWS_DEFAULT_REGION", "sa-east-1")
	require.Equal(t, Region("sa-east-1"), ResolveRegion("", ""))

	t.Setenv("AWS_DEFAULT_REGION", "")
	require.Equal(t, Region("us-east-1"), ResolveRegion("", ""))
}

func TestRegionPartition(t *testing.T) {
	require.Equal(t, PartitionAWS, Region("us-east-1").Partition())
	require.Equal(t, PartitionAWSCN, Region("cn-north-1").Partition())
	require.Equal(t, PartitionAWSUSGov, Region("us-gov-west-1").Partition())
}
