/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import "errors"

var (
	ErrNotFound   = errors.New("record not found")
	ErrUnexpected = errors.New("unexpected storage error")
)
