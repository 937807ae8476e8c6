// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import (
	"github.com/google/uuid"
)

// UID is the identity of every addressable entity: populations, projections,
// input channels and observers. The zero UID is the "nil" identity, used e.g.
// as the presynaptic population of an input projection.
type UID uuid.UUID

// NilUID is the zero identity.
var NilUID UID

// NewUID returns a new random UID.
func NewUID() UID {
	return UID(uuid.New())
}

// ParseUID parses the canonical textual form of a UID.
func ParseUID(s string) (UID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilUID, err
	}
	return UID(u), nil
}

// IsNil returns true for the zero identity.
func (id UID) IsNil() bool {
	return id == NilUID
}

func (id UID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText implements encoding.TextMarshaler
func (id UID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *UID) UnmarshalText(b []byte) error {
	u := uuid.UUID{}
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = UID(u)
	return nil
}

// Step is the global discrete simulation time.
type Step = uint64
