package submission

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-agent/internal/retry"
	"github.com/jonathan/job-agent/internal/types"
)

func TestErrorClassification(t *testing.T) {
	transient := &TransientError{Message: "page load flake"}
	permanent := &PermanentError{Message: "posting closed"}
	captcha := &CaptchaDetectedError{URL: "https://example.com/apply"}

	assert.True(t, retry.IsTransient(transient))
	assert.False(t, retry.IsTransient(permanent))
	assert.False(t, retry.IsTransient(captcha))
	assert.False(t, retry.IsTransient(&AuthExpiredError{URL: "https://example.com/apply"}))
}

func TestAuthExpiredError_Message(t *testing.T) {
	err := &AuthExpiredError{URL: "https://example.com/apply"}
	assert.Equal(t, "authentication expired at https://example.com/apply", err.Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")

	var err error = &TransientError{Message: "failed to load application page", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")

	err = &PermanentError{Message: "resume document not found", Cause: cause}
	assert.ErrorIs(t, err, cause)
}

func TestCaptchaDetectedError_Message(t *testing.T) {
	err := &CaptchaDetectedError{URL: "https://example.com/apply"}
	assert.Equal(t, "captcha challenge detected at https://example.com/apply", err.Error())
}

func TestClassifyBrowserError(t *testing.T) {
	err := classifyBrowserError("failed to load application page", context.DeadlineExceeded)
	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	assert.Contains(t, transient.Message, "timed out")

	err = classifyBrowserError("failed to load application page", context.Canceled)
	var permanent *PermanentError
	require.ErrorAs(t, err, &permanent)

	err = classifyBrowserError("failed to submit application form", errors.New("net::ERR_CONNECTION_RESET"))
	require.ErrorAs(t, err, &transient)
	assert.True(t, retry.IsTransient(err))
}

func TestSubmit_RejectsMissingURL(t *testing.T) {
	b := NewBrowser(0, false)

	_, err := b.Submit(context.Background(), types.JobRecord{Title: "Backend Engineer", Company: "Acme"}, "resume.pdf", nil)
	require.Error(t, err)

	var permanent *PermanentError
	require.ErrorAs(t, err, &permanent)
	assert.Contains(t, err.Error(), "no application URL")
	assert.False(t, retry.IsTransient(err))
}

func TestSubmit_RejectsMissingDocument(t *testing.T) {
	b := NewBrowser(0, false)
	job := types.JobRecord{Title: "Backend Engineer", Company: "Acme", URL: "https://example.com/apply"}

	_, err := b.Submit(context.Background(), job, filepath.Join(t.TempDir(), "missing.pdf"), nil)
	require.Error(t, err)

	var permanent *PermanentError
	require.ErrorAs(t, err, &permanent)
	assert.Contains(t, err.Error(), "resume document not found")
}

func TestContainsCaptcha(t *testing.T) {
	assert.True(t, containsCaptcha(`<div class="g-recaptcha"></div>`))
	assert.True(t, containsCaptcha(`<h1>Verify you are human</h1>`))
	assert.False(t, containsCaptcha(`<h1>Apply for this role</h1>`))
}

func TestAuthExpired(t *testing.T) {
	assert.True(t, authExpired(`<p>Your session has expired.</p>`))
	assert.True(t, authExpired(`<a href="/login">Sign in to continue</a>`))
	assert.False(t, authExpired(`<h1>Apply for this role</h1>`))
}

func TestLooksConfirmed(t *testing.T) {
	assert.True(t, looksConfirmed(`<p>Thank you for applying!</p>`))
	assert.True(t, looksConfirmed(`<p>Your application has been received.</p>`))
	assert.False(t, looksConfirmed(`<p>Review your application</p>`))
}

func TestAnswerFieldSelector_TruncatesAndStripsQuotes(t *testing.T) {
	sel := answerFieldSelector(`Are you "legally" authorized to work in the United States of America?`)
	assert.Contains(t, sel, `input[aria-label*="`)
	assert.NotContains(t, sel, `"legally"`)
	assert.NotContains(t, sel, "United States of America")
}
