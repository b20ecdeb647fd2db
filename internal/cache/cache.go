package cache

import (
	"context"
	"strings"
	"time"
)

// Kind is the category of cached artifact. The set is open; these are the
// kinds the preview flow uses today.
type Kind string

const (
	KindPreview  Kind = "preview"
	KindImage    Kind = "image"
	KindCaptions Kind = "captions"

	// KindAny matches every kind when invalidating.
	KindAny Kind = ""
)

// NormalizeDish derives the cache partition key from a raw dish name.
// Applied identically on every read and write so "  Aloo Paratha " and
// "aloo paratha" land on the same entry.
func NormalizeDish(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Key identifies one cached artifact: (normalized dish name, content kind).
type Key struct {
	Dish string
	Kind Kind
}

// NewKey normalizes the raw dish name into a Key.
func NewKey(dishName string, kind Kind) Key {
	return Key{Dish: NormalizeDish(dishName), Kind: kind}
}

// Colons delimit the key segments, so a dish name containing one must be
// escaped or "pizza" would prefix-match entries of "pizza: margherita".
var (
	dishEscaper   = strings.NewReplacer("%", "%25", ":", "%3a")
	dishUnescaper = strings.NewReplacer("%3a", ":", "%25", "%")
)

// String converts the structured key into the final string used in Redis/map.
func (k Key) String() string {
	// dish:<ESCAPED_NORMALIZED_NAME>:<KIND>
	return "dish:" + dishEscaper.Replace(k.Dish) + ":" + string(k.Kind)
}

// DishPrefix is the key prefix shared by all kinds for one dish. The dish
// segment is escaped, so the trailing colon can only match the kind delimiter.
func (k Key) DishPrefix() string {
	return "dish:" + dishEscaper.Replace(k.Dish) + ":"
}

// parseKey splits a stored key back into its dish and kind parts.
// The escaped dish segment never contains a raw colon, so the kind is
// everything after the last one.
func parseKey(key string) (dish string, kind Kind, ok bool) {
	rest, found := strings.CutPrefix(key, "dish:")
	if !found {
		return "", "", false
	}
	i := strings.LastIndexByte(rest, ':')
	if i < 0 {
		return "", "", false
	}
	return dishUnescaper.Replace(rest[:i]), Kind(rest[i+1:]), true
}

// Store is the storage substrate underneath ContentCache.
// Implemented by the in-memory store (dev, tests) and Redis (prod).
// Stores hold opaque bytes; serialization and key normalization live in
// ContentCache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) (int, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	SweepExpired(ctx context.Context) (int, error)
}
