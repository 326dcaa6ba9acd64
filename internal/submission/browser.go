package submission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/job-agent/internal/types"
)

// DefaultSubmitTimeout bounds one full submission attempt, including page
// load, form filling, and confirmation detection.
const DefaultSubmitTimeout = 90 * time.Second

var captchaMarkers = []string{
	"captcha",
	"recaptcha",
	"hcaptcha",
	"are you a human",
	"verify you are human",
	"cf-challenge",
	"security check",
}

var authExpiryMarkers = []string{
	"session expired",
	"session has expired",
	"sign in to continue",
	"log in to continue",
	"please sign in",
	"please log in",
}

var confirmationMarkers = []string{
	"application submitted",
	"application received",
	"successfully submitted",
	"thank you for applying",
	"thanks for applying",
	"your application has been",
}

// Browser submits applications through a headless browser. Requires
// Chrome/Chromium on the system.
type Browser struct {
	Timeout time.Duration
	Verbose bool

	now func() time.Time
}

// NewBrowser creates a Browser submitter with the default timeout when
// timeout is zero.
func NewBrowser(timeout time.Duration, verbose bool) *Browser {
	if timeout == 0 {
		timeout = DefaultSubmitTimeout
	}
	return &Browser{
		Timeout: timeout,
		Verbose: verbose,
		now:     time.Now,
	}
}

// Submit navigates to the job's application page, fills the form, uploads
// the resume document, and submits. The returned error classifies the
// failure: *TransientError for flaky loads and timeouts, *PermanentError
// for bad input, *CaptchaDetectedError when the site challenges us, and
// *AuthExpiredError when it wants credentials again.
func (b *Browser) Submit(ctx context.Context, job types.JobRecord, documentPath string, answers []ResolvedAnswer) (*Confirmation, error) {
	if job.URL == "" {
		return nil, &PermanentError{Message: fmt.Sprintf("job %s at %s has no application URL", job.Title, job.Company)}
	}
	if info, err := os.Stat(documentPath); err != nil {
		return nil, &PermanentError{Message: "resume document not found", Cause: err}
	} else if info.IsDir() {
		return nil, &PermanentError{Message: fmt.Sprintf("resume document %s is a directory", documentPath)}
	}

	if b.Verbose {
		log.Printf("[SUBMIT] %s @ %s: opening %s", job.Title, job.Company, job.URL)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.Timeout)
	defer cancel()

	var pageHTML string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(job.URL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &pageHTML),
	)
	if err != nil {
		return nil, classifyBrowserError("failed to load application page", err)
	}

	if containsCaptcha(pageHTML) {
		return nil, &CaptchaDetectedError{URL: job.URL}
	}
	if authExpired(pageHTML) {
		return nil, &AuthExpiredError{URL: job.URL}
	}

	actions := []chromedp.Action{
		// Best-effort per field: forms differ per site, a selector miss
		// must not abort the whole attempt.
		fillAnswers(answers),
		uploadDocument(documentPath),
		chromedp.Click(`button[type="submit"], input[type="submit"]`, chromedp.NodeVisible),
		chromedp.Sleep(3 * time.Second),
		chromedp.OuterHTML("html", &pageHTML),
	}
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return nil, classifyBrowserError("failed to submit application form", err)
	}

	if containsCaptcha(pageHTML) {
		return nil, &CaptchaDetectedError{URL: job.URL}
	}
	if authExpired(pageHTML) {
		return nil, &AuthExpiredError{URL: job.URL}
	}
	if !looksConfirmed(pageHTML) {
		return nil, &TransientError{Message: "no submission confirmation detected"}
	}

	if b.Verbose {
		log.Printf("[SUBMIT] %s @ %s: confirmed", job.Title, job.Company)
	}

	return &Confirmation{
		Company:      job.Company,
		Role:         job.Title,
		URL:          job.URL,
		DocumentPath: documentPath,
		SubmittedAt:  b.now(),
	}, nil
}

// fillAnswers types each resolved answer into the first field whose label or
// placeholder mentions the question. Misses are ignored.
func fillAnswers(answers []ResolvedAnswer) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, answer := range answers {
			sel := answerFieldSelector(answer.Question)
			_ = chromedp.SendKeys(sel, answer.Answer, chromedp.NodeVisible).Do(ctx)
		}
		return nil
	})
}

func uploadDocument(documentPath string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_ = chromedp.SetUploadFiles(`input[type="file"]`, []string{documentPath}).Do(ctx)
		return nil
	})
}

// answerFieldSelector matches inputs by aria-label or placeholder containing
// a short prefix of the question text.
func answerFieldSelector(question string) string {
	needle := question
	if len(needle) > 40 {
		needle = needle[:40]
	}
	needle = strings.ReplaceAll(needle, `"`, ``)
	return fmt.Sprintf(
		`input[aria-label*="%[1]s"], textarea[aria-label*="%[1]s"], input[placeholder*="%[1]s"], textarea[placeholder*="%[1]s"], select[aria-label*="%[1]s"]`,
		needle,
	)
}

func classifyBrowserError(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Message: message + ": timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &PermanentError{Message: message + ": canceled", Cause: err}
	}
	return &TransientError{Message: message, Cause: err}
}

func containsCaptcha(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range captchaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func authExpired(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range authExpiryMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func looksConfirmed(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range confirmationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
