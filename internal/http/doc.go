// Package http exposes the markmap service over net/http.
//
// Routes:
//   - POST /convert, POST /generate: JSON {markdown, title?}
//   - POST /upload: multipart "file" field (.md, .markdown, .txt)
//   - GET /artifact/{id}.{ext}: stored artifact bytes (html, svg, json)
//   - GET /artifact/{id}: manifest of the artifact set
//   - GET /health, GET /docs, GET /schema/outline.json, GET /
//
// Every non-public route is admitted by the access gate using the X-API-Key
// header or the apiKey query parameter.
package http
