//go:build !protogen

package directory

// NewRemoteProvider is a no-op in builds without generated proto stubs; the
// caller falls back to the local store.
func NewRemoteProvider(_ string) (Provider, error) {
	return nil, nil
}
