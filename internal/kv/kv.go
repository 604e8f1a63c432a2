// Package kv provides the synchronous key-value persistence collaborator.
package kv

// Store is a synchronous text key-value store. Get reports absence through
// its second return value; an error means the medium itself failed.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}
