// Package kv implements storage.Store on top of a plain key-value backend.
//
// Records are JSON encoded under these keys:
//
//	invite:<id>                              invite record (without response)
//	response:<id>                            response record
//	idx:response:invite:<inviteID>           id of the invite's response
//	idx:invite:template:<templateID>:<id>    child invite back-reference
//
// Backends have no multi-key transactions, so multi-record writes are
// ordered instead.
package kv

import (
	"context"
)

// KV is the minimal key-value contract. Get returns storage.ErrNotFound for
// a missing key and List returns keys in ascending order.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

const (
	invitePrefix           = "invite:"
	responsePrefix         = "response:"
	responseByInvitePrefix = "idx:response:invite:"
	childInvitePrefix      = "idx:invite:template:"
)

func inviteKey(id string) string {
	return invitePrefix + id
}

func responseKey(id string) string {
	return responsePrefix + id
}

func responseByInviteKey(inviteID string) string {
	return responseByInvitePrefix + inviteID
}

func childInvitesPrefix(templateID string) string {
	return childInvitePrefix + templateID + ":"
}

func childInviteKey(templateID, childID string) string {
	return childInvitesPrefix(templateID) + childID
}
