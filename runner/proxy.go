package runner

import (
	"context"
	"reflect"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/client"
	"github.com/flamesh/flame/objectcache"
)

// ObjectFuture is the result of one Proxy call: a reference to the cache
// object the generic runner put the method's return value under (§4.6 step
// 6, §4.7 step 2). Get fetches the concrete value; Ref returns the bare
// ObjectRef so a later call can chain it by reference without inlining.
type ObjectFuture struct {
	ref   *flame.ObjectRef
	cache *objectcache.Client
	codec objectcache.Codec
}

// Get fetches and decodes the referenced value into dst.
func (f *ObjectFuture) Get(ctx context.Context, dst any) error {
	return f.cache.GetObject(ctx, f.ref, dst, f.codec)
}

// Ref returns the bare ObjectRef, suitable for passing as an argument to a
// later Proxy call so the runner resolves it server-side instead of the
// caller inlining the value.
func (f *ObjectFuture) Ref() *flame.ObjectRef {
	return f.ref
}

// Proxy exposes every exported method of a local mirror of the remote
// execution object as a call returning an ObjectFuture (§4.7 step 2). The
// mirror need not be the same instance the worker runs; only its type's
// method set is used, to validate method names before making a round trip.
type Proxy struct {
	session *client.Session
	cache   *objectcache.Client
	codec   objectcache.Codec
	objType reflect.Type
}

// NewProxy builds a Proxy for session, validating calls against the local
// mirror object's type.
func NewProxy(session *client.Session, cache *objectcache.Client, mirror any) *Proxy {
	return &Proxy{
		session: session,
		cache:   cache,
		codec:   objectcache.DefaultCodec,
		objType: reflect.TypeOf(mirror),
	}
}

// Call invokes method remotely with args, returning an ObjectFuture over
// the result. It fails fast with CodeInvalidArgument if method does not
// exist on the mirror's type, mirroring the server-side check in §4.6
// without waiting for the round trip.
func (p *Proxy) Call(ctx context.Context, method string, args ...any) (*ObjectFuture, error) {
	if _, ok := p.objType.MethodByName(method); !ok {
		return nil, flame.Errorf(flame.CodeInvalidArgument, "method %q not found on execution object", method)
	}

	input, err := p.codec.Marshal(RunnerRequest{Method: method, Args: args})
	if err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "encode runner request")
	}

	output, err := p.session.Invoke(ctx, input, nil)
	if err != nil {
		return nil, err
	}

	ref, err := flame.DecodeObjectRef(output)
	if err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "decode task output reference")
	}
	return &ObjectFuture{ref: ref, cache: p.cache, codec: p.codec}, nil
}
