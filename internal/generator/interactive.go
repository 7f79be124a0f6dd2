package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"time"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

// viewerPayload is embedded in the application/json block of the document.
// html/template serialises it as JSON and escapes '<', '>', '&', U+2028 and
// U+2029, so no input can terminate the script element.
type viewerPayload struct {
	Title    string          `json:"title"`
	Markdown string          `json:"markdown"`
	Root     json.RawMessage `json:"root,omitempty"`
	Features json.RawMessage `json:"features,omitempty"`
}

type interactiveView struct {
	Title    string
	Assets   Assets
	Payload  viewerPayload
	Fallback template.HTML
}

var interactiveTemplate = template.Must(template.New("interactive").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
html, body { margin: 0; padding: 0; height: 100%; font-family: system-ui, sans-serif; }
#markmap { display: block; width: 100vw; height: 100vh; }
.markmap-toolbar { position: fixed; right: 1rem; bottom: 1rem; display: flex; gap: .25rem; }
.markmap-toolbar button { min-width: 2rem; padding: .25rem .5rem; border: 1px solid #ccc; background: #fff; cursor: pointer; }
noscript article { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
</style>
<script src="{{.Assets.D3}}"></script>
<script src="{{.Assets.MarkmapLib}}"></script>
<script src="{{.Assets.MarkmapView}}"></script>
</head>
<body>
<svg id="markmap" aria-label="{{.Title}}"></svg>
<div class="markmap-toolbar">
<button type="button" id="markmap-zoom-in" title="Zoom in">+</button>
<button type="button" id="markmap-zoom-out" title="Zoom out">&minus;</button>
<button type="button" id="markmap-fit" title="Fit to screen">Fit</button>
</div>
<noscript><article>{{.Fallback}}</article></noscript>
<script type="application/json" id="markmap-data">{{.Payload}}</script>
<script>
(function () {
  var source = document.getElementById("markmap-data");
  var data = JSON.parse(source.textContent);
  var lib = window.markmap || {};
  var root = data.root;
  if (!root) {
    var transformer = new lib.Transformer();
    root = transformer.transform(data.markdown).root;
  }
  var mm = lib.Markmap.create("#markmap", null, root);
  document.getElementById("markmap-zoom-in").addEventListener("click", function () { mm.rescale(1.25); });
  document.getElementById("markmap-zoom-out").addEventListener("click", function () { mm.rescale(0.8); });
  document.getElementById("markmap-fit").addEventListener("click", function () { mm.fit(); });
})();
</script>
</body>
</html>
`))

// buildInteractive renders the viewer document. A configured transformer is
// consulted under the render deadline. When it fails the document still
// renders, the browser transforms the Markdown itself and the failure is
// reported as a warning.
func (s *service) buildInteractive(ctx context.Context, doc document) (built, error) {
	payload := viewerPayload{Title: doc.title, Markdown: doc.body}

	var warning error
	if s.deps.Transformer != nil {
		root, features, err := s.transform(ctx, doc.body)
		if err != nil {
			warning = domain.ExternalRendererFailed(err)
		} else {
			payload.Root, payload.Features = root, features
		}
	}

	var fallback template.HTML
	if s.deps.Fallback != nil {
		if rendered, err := s.deps.Fallback.Render([]byte(doc.body)); err == nil {
			// safe-mode output: raw HTML omitted, dangerous URLs dropped
			fallback = template.HTML(rendered)
		} else {
			s.logger.Warn("generator.fallback.failed", "error", err)
		}
	}

	var buf bytes.Buffer
	err := interactiveTemplate.Execute(&buf, interactiveView{
		Title:    doc.title,
		Assets:   s.cfg.Assets,
		Payload:  payload,
		Fallback: fallback,
	})
	if err != nil {
		return built{warning: warning}, err
	}
	return built{data: buf.Bytes(), warning: warning}, nil
}

func (s *service) transform(ctx context.Context, markdown string) (json.RawMessage, json.RawMessage, error) {
	timeout := s.cfg.RenderTimeout
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result *interfaces.TransformResult
		err    error
	}
	done := make(chan outcome, 1)
	started := time.Now()
	go func() {
		result, err := s.deps.Transformer.Transform(ctx, markdown)
		done <- outcome{result, err}
	}()

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, nil, out.err
		}
		if out.result == nil || len(out.result.Root) == 0 || !json.Valid(out.result.Root) {
			return nil, nil, errInvalidTransform
		}
		features := out.result.Features
		if len(features) > 0 && !json.Valid(features) {
			features = nil
		}
		s.logger.Debug("generator.transform.done", "elapsed", time.Since(started))
		return out.result.Root, features, nil
	}
}
