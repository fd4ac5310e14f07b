//go:build !cgo

package history

import "errors"

// NewKuzuStore is unavailable without CGO.
func NewKuzuStore(string) (Store, error) {
	return nil, errors.New("history: kuzu backend requires a cgo build")
}
