package cache

import (
	"slices"
	"strings"
)

// Resources cached by the marketplace.
const (
	ResourceProfile     = "profile"
	ResourceListings    = "listings"
	ResourceAllListings = "all-listings"
	ResourceFavorites   = "favorites"
)

// Key identifies a cached read: a resource name plus a parameter tuple.
// By convention Params[0] is the profile that owns or views the result, which
// lets ClearScope drop everything belonging to one signed-in user.
type Key struct {
	Resource string
	Params   []string
}

// NewKey builds a key.
func NewKey(resource string, params ...string) Key {
	return Key{Resource: resource, Params: params}
}

// Scope returns Params[0], or "" for unscoped keys.
func (k Key) Scope() string {
	if len(k.Params) == 0 {
		return ""
	}
	return k.Params[0]
}

// Matches reports whether k belongs to resource and starts with prefix.
func (k Key) Matches(resource string, prefix ...string) bool {
	if k.Resource != resource || len(prefix) > len(k.Params) {
		return false
	}
	return slices.Equal(k.Params[:len(prefix)], prefix)
}

func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Resource
	}
	return k.Resource + "/" + strings.Join(k.Params, "/")
}

// id is the map and single-flight identity; the separator cannot appear in IDs or filters
// supplied through HTTP.
func (k Key) id() string {
	return k.Resource + "\x00" + strings.Join(k.Params, "\x00")
}
