// Package chatkey derives the canonical key identifying a conversation.
// Every participant (server and clients alike) computes the same key for the
// same conversation, so the key format is part of the wire contract and must
// never change byte-for-byte.
package chatkey

import (
	"fmt"

	"roomchat/internal/apperr"
)

// Kind is the closed set of conversation kinds.
type Kind string

const (
	KindGlobal   Kind = "global"
	KindFavorite Kind = "favorite"
	KindDM       Kind = "dm"
	KindAI       Kind = "ai"
)

// ParseKind validates a wire-level kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindGlobal, KindFavorite, KindDM, KindAI:
		return Kind(s), nil
	default:
		return "", apperr.InvalidArg(fmt.Sprintf("unknown chat type %q", s))
	}
}

// Resolve derives the canonical key for a conversation. It is a pure
// function: no I/O, and for dm the key is order-independent so both
// participants agree on it without coordination.
//
//	global            -> "global"
//	favorite, actor   -> "favorite::{actor}"
//	dm, actor, other  -> "dm::{min}::{max}"  (lexicographic)
//	ai, actor, prov   -> "ai::{actor}::{prov}"
func Resolve(kind Kind, actor, target string) (string, error) {
	switch kind {
	case KindGlobal:
		return "global", nil
	case KindFavorite:
		return "favorite::" + actor, nil
	case KindDM:
		a, b := actor, target
		if b < a {
			a, b = b, a
		}
		return "dm::" + a + "::" + b, nil
	case KindAI:
		return "ai::" + actor + "::" + target, nil
	default:
		return "", apperr.InvalidArg(fmt.Sprintf("unknown chat type %q", kind))
	}
}
