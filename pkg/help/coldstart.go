package help

const ColdstartYAML = `# markdownizer Quick Start

what_it_does: |
  Takes two copies of a web page, the one the browser extension captured and
  the one this service fetches itself, picks the one that better represents
  the readable content, and converts it to Markdown with code blocks intact.

commands:
  serve: |
    markdownizer serve                          # http://127.0.0.1:5050
    markdownizer serve --port 8080 --no-probe

  convert: |
    markdownizer convert --urls "https://example.com/docs"
    markdownizer convert --urls "https://example.com/post" --extension-html capture.html
    markdownizer convert --urls "url1,url2,url3" --workers 4 --output-dir notes

  history: |
    markdownizer history --limit 10
    markdownizer history --request <request-id>
    markdownizer history --stats --format json

endpoints:
  health: "GET /health"
  ingest: "POST /ingest {url, title, html_extension, text_extension, meta}"
  history: "GET /history?limit=N"

decision:
  - "The server copy must beat the extension copy by score_threshold (0.05) to win"
  - "Fetch failure, a changed URL after redirects, or failed extraction: extension wins"
  - "Server text under probe.threshold (500 chars): a headless probe looks for blockers"
  - "Login wall, paywall or captcha: extension wins outright"
  - "Any other blocker costs the server copy blocker_penalty (0.3)"

configuration:
  file: "--config config.yaml (server, http, probe, comparison, storage)"
  env: "MARKDOWNIZER_* overrides, e.g. MARKDOWNIZER_SERVER_PORT=8080, .env is loaded"
  probe_without_chrome: "MARKDOWNIZER_PROBE_STATIC=true"

error_behavior:
  - "Malformed URLs: fail fast before fetching"
  - "Invalid ingest body: 400 invalid-request"
  - "Exit codes: 0=success, 1=usage error or partial failure, 2=runtime failure"
`
