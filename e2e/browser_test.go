package e2e

import (
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/require"
)

const pageTimeout = 15 * time.Second

var (
	baseURL     = strings.TrimRight(os.Getenv("BLOG_E2E_URL"), "/")
	browserOnce sync.Once
	browser     *rod.Browser
	browserErr  error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if browser != nil {
		browser.MustClose()
	}
	os.Exit(code)
}

// sharedBrowser launches one headless browser for the whole run.
func sharedBrowser(t *testing.T) *rod.Browser {
	t.Helper()
	browserOnce.Do(func() {
		l := launcher.New().Headless(true)
		if bin := os.Getenv("BLOG_E2E_BROWSER"); bin != "" {
			l = l.Bin(bin)
		}
		u, err := l.Launch()
		if err != nil {
			browserErr = err
			return
		}
		browser = rod.New().ControlURL(u)
		browserErr = browser.Connect()
	})
	require.NoError(t, browserErr, "launch browser")
	return browser
}

// open loads path in a fresh page and waits until it has settled. Each
// page gets its own incognito context, so cookies (and with them the
// visitor session) never leak between tests.
func open(t *testing.T, path string) *rod.Page {
	t.Helper()
	if baseURL == "" {
		t.Skip("BLOG_E2E_URL not set")
	}

	incognito, err := sharedBrowser(t).Incognito()
	require.NoError(t, err)
	t.Cleanup(func() { incognito.Close() })

	page, err := incognito.Page(proto.TargetCreateTarget{URL: baseURL + path})
	require.NoError(t, err, "open %s", path)
	require.NoError(t, page.Timeout(pageTimeout).WaitLoad())
	return page
}

// The peek helpers never fail the test, so they are safe inside
// require.Eventually conditions.

// pathOf returns the path of the page's URL relative to baseURL.
func pathOf(page *rod.Page) string {
	info, err := page.Info()
	if err != nil {
		return ""
	}
	p := strings.TrimPrefix(info.URL, baseURL)
	if p == "" {
		p = "/"
	}
	return p
}

// peekText returns the trimmed text of the first element matching
// selector, or "" when there is none right now.
func peekText(page *rod.Page, selector string) string {
	ok, el, err := page.Has(selector)
	if err != nil || !ok {
		return ""
	}
	s, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// waitFor polls until cond holds or the page timeout expires.
func waitFor(t *testing.T, cond func() bool, msgAndArgs ...any) {
	t.Helper()
	require.Eventually(t, cond, pageTimeout, 100*time.Millisecond, msgAndArgs...)
}

// waitPath waits for navigation to land on a path matching want.
func waitPath(t *testing.T, page *rod.Page, want *regexp.Regexp) {
	t.Helper()
	waitFor(t, func() bool { return want.MatchString(pathOf(page)) },
		"navigation did not reach %s", want)
	require.NoError(t, page.Timeout(pageTimeout).WaitLoad())
}

// element waits for the first element matching selector.
func element(t *testing.T, page *rod.Page, selector string) *rod.Element {
	t.Helper()
	el, err := page.Timeout(pageTimeout).Element(selector)
	require.NoError(t, err, "find %s", selector)
	return el.CancelTimeout()
}

// elements returns every element currently matching selector.
func elements(t *testing.T, page *rod.Page, selector string) rod.Elements {
	t.Helper()
	els, err := page.Elements(selector)
	require.NoError(t, err)
	return els
}

// text returns the trimmed text of the first element matching selector.
func text(t *testing.T, page *rod.Page, selector string) string {
	t.Helper()
	s, err := element(t, page, selector).Text()
	require.NoError(t, err)
	return strings.TrimSpace(s)
}

// visible reports whether the first element matching selector is shown.
func visible(t *testing.T, page *rod.Page, selector string) bool {
	t.Helper()
	ok, err := element(t, page, selector).Visible()
	require.NoError(t, err)
	return ok
}

// has reports whether el contains a match for selector.
func has(t *testing.T, el *rod.Element, selector string) bool {
	t.Helper()
	ok, _, err := el.Has(selector)
	require.NoError(t, err)
	return ok
}

// click clicks the first element matching selector.
func click(t *testing.T, page *rod.Page, selector string) {
	t.Helper()
	require.NoError(t, element(t, page, selector).Click(proto.InputMouseButtonLeft, 1))
}
