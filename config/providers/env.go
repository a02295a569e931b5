package providers

import (
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// EnvProvider overlays environment variables onto a configuration struct.
// Keys follow the yaml tag path, e.g. OUTHOOK_LOG_LEVEL, OUTHOOK_DISPATCHER_MAX_RESPONSE_SIZE.
type EnvProvider struct {
	prefix string
	env    map[string]string
}

func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix}
}

// WithEnv substitutes the process environment, for tests.
func (p *EnvProvider) WithEnv(env map[string]string) *EnvProvider {
	p.env = env
	return p
}

func (p *EnvProvider) lookup(key string) (string, bool) {
	if p.env != nil {
		v, ok := p.env[key]
		return v, ok
	}
	return os.LookupEnv(key)
}

func (p *EnvProvider) Load(cfg any) error {
	values := make(map[string]interface{})
	p.collect(reflect.TypeOf(cfg).Elem(), p.prefix, values)
	if len(values) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "yaml",
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(values)
}

func (p *EnvProvider) collect(t reflect.Type, prefix string, out map[string]interface{}) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strings.Split(field.Tag.Get("yaml"), ",")[0]
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		key := prefix + "_" + strings.ToUpper(name)

		ft := field.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			sub := make(map[string]interface{})
			p.collect(ft, key, sub)
			if len(sub) > 0 {
				out[name] = sub
			}
			continue
		}

		if value, ok := p.lookup(key); ok {
			out[name] = value
		}
	}
}
