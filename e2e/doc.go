// Package e2e holds the browser suite for the public site. The tests drive
// a headless Chromium through go-rod against a running server and check
// the navigation contract: header and footer, carousel paging, post
// detail, category pages and the subscription form.
//
// The suite is skipped unless BLOG_E2E_URL points at a server with the
// development seed loaded, e.g.
//
//	BLOG_E2E_URL=http://localhost:8080 go test ./e2e/...
//
// BLOG_E2E_BROWSER optionally names a Chromium binary; otherwise rod
// downloads one.
package e2e
