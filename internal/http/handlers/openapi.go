package handlers

import (
	_ "embed"
	"fmt"
	"net/http"
)

//go:embed openapi.json
var openAPIDocument []byte

const docsTitle = "Speed Rush Car Generator API"

// swaggerPage and redocPage take the document URL as their only argument.
const (
	swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>` + docsTitle + `</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>SwaggerUIBundle({url: %q, dom_id: "#swagger-ui"});</script>
</body>
</html>`

	redocPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>` + docsTitle + `</title>
<style>body { margin: 0; } redoc { display: block; height: 100vh; }</style>
</head>
<body>
<redoc spec-url=%q></redoc>
<script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
</body>
</html>`
)

const openAPIPath = "/openapi.json"

// OpenAPIJSON serves the embedded OpenAPI document.
func (a *App) OpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(openAPIDocument)
}

// SwaggerDocs serves the interactive Swagger UI at /docs.
func (a *App) SwaggerDocs(w http.ResponseWriter, _ *http.Request) {
	writeHTML(w, fmt.Sprintf(swaggerPage, openAPIPath))
}

// RedocDocs serves the read-only ReDoc view at /redoc.
func (a *App) RedocDocs(w http.ResponseWriter, _ *http.Request) {
	writeHTML(w, fmt.Sprintf(redocPage, openAPIPath))
}

func writeHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}
