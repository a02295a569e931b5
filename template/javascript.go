package template

import (
	"context"
	"errors"
	"time"

	"github.com/dop251/goja"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Timeout bounds a single expression evaluation.
var Timeout = time.Second * 5

var cache, _ = lru.New[string, *goja.Program](128)

// JavaScriptEvaluator is a batteries-included Evaluator that runs each
// expression as JavaScript. Hosts expose live state by putting values and
// functions into the template context, e.g.
//
//	tctx := map[string]any{
//		"states": func(id string) any { return hub.State(id) },
//		"now":    func() string { return time.Now().Format(time.RFC3339) },
//	}
type JavaScriptEvaluator struct{}

func NewJavaScriptEvaluator() *JavaScriptEvaluator {
	return &JavaScriptEvaluator{}
}

func (e *JavaScriptEvaluator) Evaluate(ctx context.Context, expr string, tctx map[string]any) (any, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	for name, value := range tctx {
		if err := vm.Set(name, value); err != nil {
			return nil, err
		}
	}

	timer := time.AfterFunc(Timeout, func() { vm.Interrupt(errors.New("timeout")) })
	defer timer.Stop()
	if deadline, ok := ctx.Deadline(); ok {
		timer.Reset(time.Until(deadline))
	}

	program, ok := cache.Get(expr)
	if !ok {
		var err error
		program, err = goja.Compile("", expr, false)
		if err != nil {
			return nil, err
		}
		cache.Add(expr, program)
	}

	value, err := vm.RunProgram(program)
	if err != nil {
		if e, ok := err.(*goja.InterruptedError); ok {
			err = e.Unwrap()
		}
		return nil, err
	}
	return value.Export(), nil
}
