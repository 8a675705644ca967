package stmtcache

// Key identifies a unique prepared form of a SQL text.
//
// By default only SQL is set. Dialects that must prepare textually identical SQL differently (for example
// under a different schema search path, or for a different expected result shape) put the extra material in
// Discriminator. Keys are compared for exact equality: no whitespace or case normalization is applied.
type Key struct {
	SQL           string
	Discriminator string
}

// String renders the key as "<sql> : <discriminator>", with "nil" standing in for an empty discriminator.
func (k Key) String() string {
	if k.Discriminator == "" {
		return k.SQL + " : nil"
	}

	return k.SQL + " : " + k.Discriminator
}

// KeyFunc derives the cache key of a SQL text.
type KeyFunc func(sql string) Key

// IdentityKey is the default KeyFunc: the key is the raw SQL text.
func IdentityKey(sql string) Key {
	return Key{SQL: sql}
}

// DiscriminatedKey returns a KeyFunc appending the value reported by discriminator at derivation time.
// It is meant for per-connection state that changes the meaning of SQL, such as the current schema.
func DiscriminatedKey(discriminator func() string) KeyFunc {
	return func(sql string) Key {
		return Key{SQL: sql, Discriminator: discriminator()}
	}
}
