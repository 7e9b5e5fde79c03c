// Package collector acquires the page context a scan runs against.
//
// Three collectors share the Collector interface:
//
//   - HTTPCollector fetches the page with net/http and parses the static HTML.
//     Headers are always observed, storage is never captured.
//   - BrowserCollector drives headless Chrome through chromedp. It captures the
//     main document response headers from the network domain, the rendered DOM,
//     cookies from the browser cookie store and Web Storage keys.
//   - FileCollector replays a saved HTML page (or an exported snapshot JSON)
//     with an optional headers document.
//
// A transport or navigation failure is a whole-scan failure and is reported as
// errors.ErrPageUnavailable. Missing headers are not: they are expressed through
// scan.Headers so the header rules can answer "error" or "na" themselves.
package collector
