// Package identity derives the anonymous device identifier reported to the
// location service.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/groupride/convoy/pkg/core"
)

// ErrEmptyVendorID is returned when the identity source yields nothing usable.
var ErrEmptyVendorID = errors.New("empty vendor device id")

// Source yields the vendor-scoped device UUID.
type Source interface {
	VendorID() (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (string, error)

// VendorID calls f.
func (f SourceFunc) VendorID() (string, error) {
	return f()
}

// Static returns a Source for a configured vendor ID.
func Static(vendorID string) Source {
	return SourceFunc(func() (string, error) {
		return vendorID, nil
	})
}

// Generated returns a Source that creates a random UUID on first use and
// returns the same value for the lifetime of the Source.
func Generated() Source {
	var (
		once sync.Once
		id   string
		err  error
	)
	return SourceFunc(func() (string, error) {
		once.Do(func() {
			var u uuid.UUID
			u, err = uuid.NewRandom()
			if err == nil {
				id = u.String()
			}
		})
		return id, err
	})
}

// Hash is the one-way transform applied to the vendor ID.
func Hash(vendorID string) core.DeviceIdentity {
	sum := sha256.Sum256([]byte(strings.ToUpper(vendorID)))
	return core.DeviceIdentity(hex.EncodeToString(sum[:]))
}

// Resolver computes the device identity once and caches it.
type Resolver struct {
	source Source

	once sync.Once
	id   core.DeviceIdentity
	err  error
}

// NewResolver creates a Resolver over source.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Identity returns the cached device identity, computing it on first call.
// A failed first computation is cached as well.
func (r *Resolver) Identity() (core.DeviceIdentity, error) {
	r.once.Do(func() {
		vendorID, err := r.source.VendorID()
		if err != nil {
			r.err = fmt.Errorf("reading vendor id: %w", err)
			return
		}
		if strings.TrimSpace(vendorID) == "" {
			r.err = ErrEmptyVendorID
			return
		}
		r.id = Hash(vendorID)
	})
	return r.id, r.err
}
