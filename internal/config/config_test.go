package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Afrawles/sprintdigest/internal/report"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"JIRA_DOMAIN", "JIRA_EMAIL", "JIRA_API_TOKEN", "JIRA_BOARD_IDS",
		"JIRA_RATE_LIMIT", "JIRA_TIMEOUT", "SLACK_BOT_TOKEN", "SLACK_CHANNEL_ID",
		"SLACK_WEBHOOK_URL", "SLACK_API_URL", "DIGEST_PROFILE", "DIGEST_TIMEZONE",
		"DIGEST_CONCURRENCY", "DIGEST_CONFIG", "OUTPUT_DIR", "OUTPUT_FORMAT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JIRA_DOMAIN", "acme.atlassian.net")
	t.Setenv("JIRA_EMAIL", "bot@acme.io")
	t.Setenv("JIRA_API_TOKEN", "token")
	t.Setenv("JIRA_BOARD_IDS", "1, 2 ,3")
	t.Setenv("JIRA_TIMEOUT", "10s")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb")
	t.Setenv("SLACK_CHANNEL_ID", "C1")
	t.Setenv("DIGEST_PROFILE", "daily")
	t.Setenv("OUTPUT_FORMAT", "json, xlsx")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://acme.atlassian.net", cfg.JiraBaseURL())
	assert.Equal(t, []int{1, 2, 3}, cfg.Jira.BoardIDs)
	assert.Equal(t, 10*time.Second, cfg.Jira.Timeout)
	assert.Equal(t, []string{"json", "xlsx"}, cfg.Output.Format)
	assert.EqualValues(t, 5, cfg.Jira.RateLimit)

	p, err := cfg.Profile()
	require.NoError(t, err)
	assert.Equal(t, report.FormatSections, p.Format)

	assert.NoError(t, cfg.Validate(true))
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("JIRA_BOARD_IDS", "1,two")
	_, err := Load("")
	assert.ErrorContains(t, err, "JIRA_BOARD_IDS")

	clearEnv(t)
	t.Setenv("DIGEST_CONCURRENCY", "many")
	_, err = Load("")
	assert.ErrorContains(t, err, "DIGEST_CONCURRENCY")
}

func TestValidateReportsMissingCredentials(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	err = cfg.Validate(true)
	assert.ErrorIs(t, err, ErrMissingJira)
	assert.ErrorIs(t, err, ErrMissingSlack)

	err = cfg.Validate(false)
	assert.ErrorIs(t, err, ErrMissingJira)
	assert.NotErrorIs(t, err, ErrMissingSlack)
}

func TestValidateUnknownProfile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIGEST_PROFILE", "hourly")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(false), report.ErrUnknownProfile)
}

func TestFileProfilesAndEnvPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "digest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jira:
  domain: https://jira.internal.example.com/
  email: file@acme.io
  api_token: file-token
  timeout: 5s
slack:
  webhook_url: https://hooks.slack.com/services/T/B/X
digest:
  profile: qa
  timezone: Europe/Berlin
profiles:
  qa:
    days: [tue, thu]
    mode: board
    jql: "status = 'Ready for QA' AND Sprint in openSprints()"
    groups:
      - name: Ready for QA
        statuses: [Ready for QA, ready_for_qa]
    format: sections
    header: "*QA queue*"
    empty: "QA queue is empty."
`), 0644))

	t.Setenv("JIRA_EMAIL", "env@acme.io")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://jira.internal.example.com", cfg.JiraBaseURL())
	assert.Equal(t, "env@acme.io", cfg.Jira.Email)
	assert.Equal(t, 5*time.Second, cfg.Jira.Timeout)

	p, err := cfg.Profile()
	require.NoError(t, err)
	assert.Equal(t, "qa", p.Name)
	assert.Equal(t, []string{"tue", "thu"}, p.Days)

	// built-ins survive next to file profiles
	_, ok := cfg.Profiles["weekly"]
	assert.True(t, ok)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	assert.NoError(t, cfg.Validate(true))
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestSplitListAndParseIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b "))
	assert.Nil(t, SplitList(""))

	ids, err := ParseIDs("10,20")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, ids)
}
