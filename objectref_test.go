package flame_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flamesh/flame"
)

func TestObjectRefRoundTrip(t *testing.T) {
	cases := []*flame.ObjectRef{
		nil,
		{},
		{URL: "https://cache.example.com/objects/abc", Version: 3},
		{Inline: []byte("hello world")},
		{URL: "s3://bucket/key", Version: 42, Inline: nil},
	}
	for _, ref := range cases {
		encoded := ref.Encode()
		decoded, err := flame.DecodeObjectRef(encoded)
		require.NoError(t, err)
		reencoded := decoded.Encode()
		require.Equal(t, encoded, reencoded)
	}
}

func TestObjectRefNullAndInline(t *testing.T) {
	var nilRef *flame.ObjectRef
	require.True(t, nilRef.IsNull())

	empty := &flame.ObjectRef{}
	require.True(t, empty.IsNull())
	require.False(t, empty.IsInline())

	inline := &flame.ObjectRef{Inline: []byte("x")}
	require.False(t, inline.IsNull())
	require.True(t, inline.IsInline())

	remote := &flame.ObjectRef{URL: "http://x/y"}
	require.False(t, remote.IsNull())
	require.False(t, remote.IsInline())
}
