package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestStatusDefaultsToLoggedOut(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "kinds: 3  logged in: 0")
	assert.Contains(t, stdout, "/agents/auth/login")
	assert.Contains(t, stdout, "rehydration: absent")
}

func TestLoginRequiresAccountID(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "session", "login", "agent", "--first-name", "Grace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"account-id\" not set")
}

func TestLoginRejectsUnknownKind(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "session", "login", "guest", "--account-id", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownAccountKind)
}

func TestDurableLoginSurvivesRestart(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "login", "user",
		"--account-id", "42",
		"--first-name", "Ada",
		"--email", "ada@example.com",
	)
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "session", "show", "user")
	require.NoError(t, err)

	var snapshot domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(stdout), &snapshot))
	assert.True(t, snapshot.Matches(domain.AccountKindUser))
	assert.Equal(t, "Ada", snapshot.FirstName)

	_, err = os.Stat(filepath.Join(home, ".leasehold", "durable.toml"))
	assert.NoError(t, err)
}

func TestCookieLoginSurvivesRestartThroughJar(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "login", "admin", "--account-id", "9", "--first-name", "Root")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "status", "--kind", "admin")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[logged in]")
	assert.Contains(t, stdout, "#9")
	assert.Contains(t, stdout, "rehydration: restored")

	jar, err := os.ReadFile(filepath.Join(home, ".leasehold", "cookies.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(jar), "adminToken")
}

func TestLogoutRemovesPersistedSession(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "login", "agent", "--account-id", "7")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "session", "logout", "agent")
	require.NoError(t, err)
	assert.Equal(t, "agent logged out\n", stdout)

	stdout, _, err = executeCLI(t, home, "session", "show", "agent")
	require.NoError(t, err)
	var snapshot domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(stdout), &snapshot))
	assert.True(t, snapshot.IsDefault())
}

func TestUpdateMergesWithoutPersisting(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "login", "user", "--account-id", "42", "--first-name", "Ada")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "session", "update", "user", "--first-name", "Augusta")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\"firstName\": \"Augusta\"")

	stdout, _, err = executeCLI(t, home, "session", "show", "user")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\"firstName\": \"Ada\"")
}

func TestUpdateWhileLoggedOutFails(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "session", "update", "agent", "--email", "a@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestUpdateRequiresAField(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "session", "update", "agent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestMalformedDurableSnapshotDegrades(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".leasehold")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "durable.toml"), []byte(`version = 1

[[entries]]
key = "cli/userState"
value = "{not json"
`), 0o600))

	stdout, _, err := executeCLI(t, home, "status", "--kind", "user")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[logged out]")
	assert.Contains(t, stdout, "degraded (malformed)")
}

func TestStatusJSONOutput(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "status", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"Kind\": \"user\"")
}

func TestInvalidConfigSurfacesOnEveryCommand(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".leasehold")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[durable]\nbackend = \"sqlite\"\n"), 0o600))

	_, _, err := executeCLI(t, home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported durable backend")
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestTokenIsVaultedAndResolved(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LEASEHOLD_TOKENS_VAULT", "file")

	stdout, _, err := executeCLI(t, home, "session", "login", "agent", "--account-id", "7", "--token", "agent-secret")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\"tokenRef\": \"vault:leasehold/agent/7\"")
	assert.NotContains(t, stdout, "agent-secret")

	stdout, _, err = executeCLI(t, home, "session", "token", "agent")
	require.NoError(t, err)
	assert.Equal(t, "agent-secret\n", stdout)

	_, err = os.Stat(filepath.Join(home, ".leasehold", "tokens", "agent", "7.token"))
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "session", "logout", "agent")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(home, ".leasehold", "tokens", "agent", "7.token"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLogoutKeepsTokensItDidNotVault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LEASEHOLD_TOKENS_VAULT", "file")
	adminToken := filepath.Join(home, ".leasehold", "tokens", "admin", "1.token")

	_, _, err := executeCLI(t, home, "session", "login", "admin", "--account-id", "1", "--token", "admin-secret")
	require.NoError(t, err)

	for _, ref := range []string{"vault:leasehold/admin/1", "vault://agents/7"} {
		_, _, err = executeCLI(t, home, "session", "login", "agent", "--account-id", "7", "--token-ref", ref)
		require.NoError(t, err)

		stdout, _, err := executeCLI(t, home, "session", "logout", "agent")
		require.NoError(t, err, ref)
		assert.Equal(t, "agent logged out\n", stdout)

		_, err = os.Stat(adminToken)
		require.NoError(t, err, ref)
	}
}
