/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package cards

import "errors"

var (
	ErrNameRequired  = errors.New("pack name is required")
	ErrNoCards       = errors.New("add at least one card")
	ErrEmptyCard     = errors.New("card text is empty")
	ErrDuplicateCard = errors.New("this card already exists in the pack")
	ErrReadOnlyPack  = errors.New("built-in packs cannot be modified")
	ErrPackNotFound  = errors.New("pack not found")
)
