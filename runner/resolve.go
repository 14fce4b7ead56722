package runner

import (
	"context"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/objectcache"
)

// resolveArgs replaces every ObjectRef-shaped element of args and kwargs
// with its fetched, decoded value (§4.6 step 2). Plain values pass through
// unchanged.
func resolveArgs(ctx context.Context, cache *objectcache.Client, codec objectcache.Codec, args []any, kwargs map[string]any) ([]any, map[string]any, error) {
	resolvedArgs := make([]any, len(args))
	for i, a := range args {
		v, err := resolveOne(ctx, cache, codec, a)
		if err != nil {
			return nil, nil, err
		}
		resolvedArgs[i] = v
	}

	var resolvedKwargs map[string]any
	if kwargs != nil {
		resolvedKwargs = make(map[string]any, len(kwargs))
		for k, a := range kwargs {
			v, err := resolveOne(ctx, cache, codec, a)
			if err != nil {
				return nil, nil, err
			}
			resolvedKwargs[k] = v
		}
	}
	return resolvedArgs, resolvedKwargs, nil
}

func resolveOne(ctx context.Context, cache *objectcache.Client, codec objectcache.Codec, v any) (any, error) {
	ref, ok := asObjectRef(v)
	if !ok {
		return v, nil
	}
	var decoded any
	if err := cache.GetObject(ctx, ref, &decoded, codec); err != nil {
		return nil, err
	}
	return decoded, nil
}

// asObjectRef recognizes a value decoded from wire JSON as an ObjectRef: the
// codec decodes RunnerRequest.Args/Kwargs elements as map[string]any, so an
// embedded reference arrives shaped like {"url": "...", "version": N}.
func asObjectRef(v any) (*flame.ObjectRef, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	url, ok := m["url"].(string)
	if !ok || url == "" {
		return nil, false
	}
	ref := &flame.ObjectRef{URL: url}
	switch version := m["version"].(type) {
	case float64:
		ref.Version = int64(version)
	case int64:
		ref.Version = version
	}
	return ref, true
}
