/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gesture

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrNoPrompt = errors.New("no permission prompt available")

// Capability describes how a platform exposes orientation events.
type Capability interface {
	// Supported reports whether orientation events exist at all.
	Supported() bool
	// RequestPermission asks for access. An error counts as a denial.
	RequestPermission(ctx context.Context) (bool, error)
}

// Ungated platforms deliver orientation without asking.
type Ungated struct {
	Available bool
}

func (u Ungated) Supported() bool {
	return u.Available
}

func (Ungated) RequestPermission(context.Context) (bool, error) {
	return true, nil
}

// Gated platforms need an explicit user grant, obtained through Prompt.
type Gated struct {
	Available bool
	Prompt    func(ctx context.Context) (bool, error)
}

func (g Gated) Supported() bool {
	return g.Available
}

func (g Gated) RequestPermission(ctx context.Context) (bool, error) {
	if g.Prompt == nil {
		return false, ErrNoPrompt
	}
	return g.Prompt(ctx)
}

// Permission is the tri-state result of asking for orientation access.
type Permission int

const (
	PermissionUnknown Permission = iota // not yet requested
	PermissionGranted
	PermissionDenied
)

// MarshalJSON encodes unknown as null, matching a nullable boolean.
func (p Permission) MarshalJSON() ([]byte, error) {
	switch p {
	case PermissionGranted:
		return []byte("true"), nil
	case PermissionDenied:
		return []byte("false"), nil
	}
	return []byte("null"), nil
}

func (p *Permission) UnmarshalJSON(data []byte) error {
	var granted *bool
	if err := json.Unmarshal(data, &granted); err != nil {
		return err
	}

	switch {
	case granted == nil:
		*p = PermissionUnknown
	case *granted:
		*p = PermissionGranted
	default:
		*p = PermissionDenied
	}

	return nil
}
