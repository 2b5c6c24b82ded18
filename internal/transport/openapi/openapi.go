// Package openapi derives an OpenAPI 3 document from the mounted chi routes
// so the served contract cannot drift from the router.
package openapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	"golang.org/x/sync/singleflight"
)

const bearerScheme = "bearerAuth"

var paramPattern = regexp.MustCompile(`\{([^}:]+)(:[^}]*)?\}`)

type Options struct {
	Title   string
	Version string
	// Public lists "METHOD /path" keys that need no bearer token.
	Public []string
	// Summaries maps "METHOD /path" to an operation summary.
	Summaries map[string]string
	// Skip drops routes whose path starts with any of these prefixes.
	Skip []string
}

type route struct {
	method string
	path   string
}

// Build walks routes and assembles the document.
func Build(ctx context.Context, routes chi.Routes, opts Options) (*openapi3.T, error) {
	var collected []route
	err := chi.Walk(routes, func(method, pattern string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		path := normalize(pattern)
		if strings.Contains(path, "*") || skipped(path, opts.Skip) {
			return nil
		}
		collected = append(collected, route{method: method, path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(collected, func(i, j int) bool {
		if collected[i].path == collected[j].path {
			return collected[i].method < collected[j].method
		}
		return collected[i].path < collected[j].path
	})

	public := make(map[string]bool, len(opts.Public))
	for _, k := range opts.Public {
		public[k] = true
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   opts.Title,
			Version: opts.Version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			SecuritySchemes: openapi3.SecuritySchemes{
				bearerScheme: &openapi3.SecuritySchemeRef{Value: openapi3.NewJWTSecurityScheme()},
			},
		},
	}

	for _, rt := range collected {
		key := rt.method + " " + rt.path
		item := doc.Paths.Value(rt.path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(rt.path, item)
		}

		op := openapi3.NewOperation()
		op.OperationID = operationID(rt.method, rt.path)
		op.Summary = opts.Summaries[key]
		op.Tags = []string{tag(rt.path)}
		for _, m := range paramPattern.FindAllStringSubmatch(rt.path, -1) {
			op.AddParameter(openapi3.NewPathParameter(m[1]).WithSchema(openapi3.NewStringSchema()))
		}
		op.Responses = responses(rt.method, public[key])
		if !public[key] {
			op.Security = openapi3.NewSecurityRequirements().
				With(openapi3.NewSecurityRequirement().Authenticate(bearerScheme))
		}
		item.SetOperation(rt.method, op)
	}

	return doc, nil
}

func responses(method string, public bool) *openapi3.Responses {
	out := &openapi3.Responses{}
	ok := "200"
	switch method {
	case http.MethodPost:
		ok = "201"
	case http.MethodDelete:
		ok = "204"
	}
	out.Set(ok, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("OK")})
	out.Set("400", &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Bad request")})
	if !public {
		out.Set("401", &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Unauthorized")})
		out.Set("403", &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Forbidden")})
	}
	return out
}

func normalize(pattern string) string {
	path := paramPattern.ReplaceAllString(pattern, "{$1}")
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func skipped(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, seg := range strings.Split(path, "/") {
		seg = strings.Trim(seg, "{}")
		if seg == "" {
			continue
		}
		b.WriteString("_")
		b.WriteString(strings.ReplaceAll(seg, "-", "_"))
	}
	return b.String()
}

func tag(path string) string {
	segs := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return "default"
	}
	return segs[0]
}

// Handler serves the document as JSON. It is generated on first request and
// cached, concurrent first requests share one build.
type Handler struct {
	routes chi.Routes
	opts   Options
	logger *slog.Logger

	group  singleflight.Group
	cached atomic.Pointer[[]byte]
}

func NewHandler(routes chi.Routes, opts Options, logger *slog.Logger) *Handler {
	return &Handler{routes: routes, opts: opts, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := h.document(r.Context())
	if err != nil {
		h.logger.Error("failed to build openapi document", "error", err)
		http.Error(w, "failed to build openapi document", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *Handler) document(ctx context.Context) ([]byte, error) {
	if b := h.cached.Load(); b != nil {
		return *b, nil
	}
	v, err, _ := h.group.Do("openapi", func() (interface{}, error) {
		doc, err := Build(ctx, h.routes, h.opts)
		if err != nil {
			return nil, err
		}
		if err := doc.Validate(context.WithoutCancel(ctx)); err != nil {
			h.logger.Warn("openapi document failed validation", "error", err)
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		h.cached.Store(&b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
