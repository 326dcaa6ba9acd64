package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-agent/internal/types"
)

const boardHTML = `<html><body>
<div class="opening">
  <a href="/acme/jobs/101">Backend Engineer</a>
  <span class="location">Remote - US</span>
</div>
<div class="opening">
  <a href="/acme/jobs/102">Backend Engineer II</a>
  <span class="location">New York, NY</span>
</div>
<div class="opening">
  <a href="/acme/jobs/103">Account Executive</a>
  <span class="location">Remote</span>
</div>
</body></html>`

func TestGreenhouseParseBoard(t *testing.T) {
	g := NewGreenhouse(nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(boardHTML))
	}))
	defer server.Close()

	jobs, err := g.parseBoard(context.Background(), server.URL, "Acme", Criteria{Term: "Engineer"})
	require.NoError(t, err)

	require.Len(t, jobs, 2)
	assert.Equal(t, "Backend Engineer", jobs[0].Title)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.True(t, jobs[0].Remote)
	assert.True(t, strings.HasSuffix(jobs[0].URL, "/acme/jobs/101"))
	assert.Equal(t, types.PlatformGreenhouse, jobs[0].Site)
	assert.False(t, jobs[1].Remote)
}

func TestGreenhouseRemoteFilter(t *testing.T) {
	g := NewGreenhouse(nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(boardHTML))
	}))
	defer server.Close()

	jobs, err := g.parseBoard(context.Background(), server.URL, "Acme", Criteria{Term: "Engineer", Remote: true})
	require.NoError(t, err)

	require.Len(t, jobs, 1)
	assert.Equal(t, "Backend Engineer", jobs[0].Title)
}

func TestMatchesCriteria(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		location string
		criteria Criteria
		want     bool
	}{
		{"term word match", "Senior Backend Engineer", "Remote", Criteria{Term: "backend"}, true},
		{"term mismatch", "Account Executive", "Remote", Criteria{Term: "engineer"}, false},
		{"no term matches everything", "Anything", "Anywhere", Criteria{}, true},
		{"remote required", "Engineer", "NYC", Criteria{Remote: true}, false},
		{"location filter", "Engineer", "Tel Aviv, Israel", Criteria{Location: "tel aviv"}, true},
		{"location mismatch", "Engineer", "London", Criteria{Location: "tel aviv"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesCriteria(tt.title, tt.location, tt.criteria))
		})
	}
}

func TestBoardSlug(t *testing.T) {
	assert.Equal(t, "acme", boardSlug("Acme"))
	assert.Equal(t, "bigcorplabs", boardSlug("Bigcorp Labs"))
}
