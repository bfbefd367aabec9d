package store

import "errors"

// ErrQuotaExceeded is returned by a Storage when a write would exceed its capacity.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Storage is a synchronous string key-value medium. A missing key is reported
// with ok == false, never as an error.
type Storage interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

var (
	_ Storage = (*DB)(nil)
	_ Storage = (*Memory)(nil)
)
