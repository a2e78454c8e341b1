package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/credcore"
)

func setTestEnv(t *testing.T) {
	t.Setenv("CREDCORE_AUTH_SECRET_KEY", "cli-test-secret-cli-test-secret")
	t.Setenv("CREDCORE_PASSWORD_BCRYPT_COST", "4")
}

func runCmd(t *testing.T, stdin string, cmd string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(cmd, args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestIssueThenInspect(t *testing.T) {
	setTestEnv(t)

	code, out, errOut := runCmd(t, "", "issue", "-sub", "u1", "-scope", "read write", "-aud", "api")
	require.Equal(t, 0, code, errOut)

	var tok credcore.Token
	require.NoError(t, json.Unmarshal([]byte(out), &tok))
	assert.Equal(t, credcore.TokenTypeBearer, tok.TokenType)

	code, out, errOut = runCmd(t, "", "inspect", tok.AccessToken)
	require.Equal(t, 0, code, errOut)
	assert.JSONEq(t, `{"sub":"u1","aud":"api","scope":"read write"}`, out)
}

func TestInspectRejectsTamperedToken(t *testing.T) {
	setTestEnv(t)

	code, _, errOut := runCmd(t, "", "inspect", "a.b.c")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "bad token")
}

func TestIssueWithoutSubjectFails(t *testing.T) {
	setTestEnv(t)

	code, _, _ := runCmd(t, "", "issue")
	assert.Equal(t, 1, code)
}

func TestHashThenVerify(t *testing.T) {
	setTestEnv(t)

	code, out, errOut := runCmd(t, "correct-password\n", "hash")
	require.Equal(t, 0, code, errOut)
	hashed := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hashed, "$2"))

	code, out, _ = runCmd(t, "", "verify", "-hash", hashed, "-password", "correct-password")
	assert.Equal(t, 0, code)
	assert.Equal(t, "ok\n", out)

	code, _, errOut = runCmd(t, "wrong-password\n", "verify", "-hash", hashed)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "does not match")
}

func TestMissingSecretIsConfigurationFailure(t *testing.T) {
	t.Setenv("CREDCORE_AUTH_SECRET_KEY", "")

	code, _, errOut := runCmd(t, "", "issue", "-sub", "u1")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "configuration error")
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := runCmd(t, "", "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage")
}

func TestServeMux(t *testing.T) {
	cfg := credcore.DefaultConfig()
	cfg.Auth.SecretKey = "serve-test-secret-serve-test-secret"
	backend, err := credcore.New().WithConfig(cfg).WithMetricsEnabled(true).Build()
	require.NoError(t, err)
	mux := newServeMux(backend)

	tok, err := backend.CreateAccessToken(credcore.TokenData{Subject: "u1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"sub":"u1"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "credcore_token_accepted_total 1")
}

func TestLoadtestSmall(t *testing.T) {
	setTestEnv(t)

	code, out, errOut := runCmd(t, "", "loadtest", "-subjects", "4", "-concurrency", "2", "-ops", "20")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "issue: ops=20 failures=0")
	assert.Contains(t, out, "fetch: ops=20 failures=0")
}
