package template

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/outhook-io/outhook/model"
	"github.com/outhook-io/outhook/pkg/errs"
)

// Evaluator is the host-supplied expression service. It evaluates one
// {{ }} body against live host state and may return any JSON-like value.
type Evaluator interface {
	Evaluate(ctx context.Context, expr string, tctx map[string]any) (any, error)
}

var exprPattern = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Resolver walks strings, maps and slices, delegating every embedded
// expression to the Evaluator. It owns traversal only; it never parses
// expressions itself. Values are resolved fresh on every call since the
// evaluator reads live state.
type Resolver struct {
	evaluator Evaluator
}

func NewResolver(evaluator Evaluator) *Resolver {
	return &Resolver{evaluator: evaluator}
}

// Resolve evaluates all template expressions inside value. Values with no
// {{ }} markers come back unchanged.
func (r *Resolver) Resolve(ctx context.Context, value any, tctx map[string]any) (any, error) {
	return r.resolve(ctx, value, tctx, "")
}

// ResolveRequest resolves the url, header values and payload of a merged
// request. Header values are coerced to strings; a string payload that
// resolves to a JSON object or array is parsed into its structured form.
func (r *Resolver) ResolveRequest(ctx context.Context, req *model.EffectiveRequest, tctx map[string]any) (*model.ResolvedRequest, error) {
	resolved := &model.ResolvedRequest{
		Method:         req.Method,
		TimeoutSeconds: req.TimeoutSeconds,
		RetryAttempts:  req.RetryAttempts,
	}

	url, err := r.resolve(ctx, req.URL, tctx, "url")
	if err != nil {
		return nil, err
	}
	resolved.URL = Stringify(url)

	if req.Headers != nil {
		headers := make(model.Headers, len(req.Headers))
		for name, value := range req.Headers {
			v, err := r.resolve(ctx, value, tctx, "headers."+name)
			if err != nil {
				return nil, err
			}
			headers[name] = Stringify(v)
		}
		resolved.Headers = headers
	}

	payload, err := r.resolve(ctx, req.Payload, tctx, "payload")
	if err != nil {
		return nil, err
	}
	if s, ok := payload.(string); ok {
		payload = parseIfJSON(s)
	}
	resolved.Payload = payload

	return resolved, nil
}

func (r *Resolver) resolve(ctx context.Context, value any, tctx map[string]any, path string) (any, error) {
	switch v := value.(type) {
	case string:
		return r.resolveString(ctx, v, tctx, path)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			resolved, err := r.resolve(ctx, item, tctx, joinPath(path, key))
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := r.resolve(ctx, item, tctx, joinPath(path, fmt.Sprintf("%d", i)))
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case model.Headers:
		out := make(model.Headers, len(v))
		for key, item := range v {
			resolved, err := r.resolveString(ctx, item, tctx, joinPath(path, key))
			if err != nil {
				return nil, err
			}
			out[key] = Stringify(resolved)
		}
		return out, nil
	default:
		// numbers, booleans, nil pass through untouched
		return value, nil
	}
}

func (r *Resolver) resolveString(ctx context.Context, s string, tctx map[string]any, path string) (any, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	// a string that is exactly one expression keeps the evaluator's type
	if m := exprPattern.FindStringSubmatch(s); m != nil && strings.TrimSpace(s) == strings.TrimSpace(m[0]) {
		value, err := r.evaluator.Evaluate(ctx, strings.TrimSpace(m[1]), tctx)
		if err != nil {
			return nil, errs.NewTemplateError(path, err)
		}
		return value, nil
	}

	// embedded expressions are stringified in place
	var evalErr error
	out := exprPattern.ReplaceAllStringFunc(s, func(match string) string {
		if evalErr != nil {
			return match
		}
		expr := strings.TrimSpace(match[2 : len(match)-2])
		value, err := r.evaluator.Evaluate(ctx, expr, tctx)
		if err != nil {
			evalErr = errs.NewTemplateError(path, err)
			return match
		}
		return Stringify(value)
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return out, nil
}

func joinPath(base, segment string) string {
	if base == "" {
		return segment
	}
	return base + "." + segment
}

// Stringify renders a resolved value the way it should appear inside a
// larger string or a header.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

func parseIfJSON(s string) any {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return s
	}
	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return s
	}
	return parsed
}
