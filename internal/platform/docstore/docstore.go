// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

/*
Package docstore defines the remote document store contract the catalog
consumes.

The catalog never talks SQL. It reads and writes opaque JSON documents
grouped into named collections, through exactly the operations a managed
document database exposes: point reads, equality queries, creates with
store-assigned ids, partial updates, deletes, and atomic increments.

Architecture:

  - Store: The single port interface, satisfied by the PostgreSQL/jsonb
    adapter in production and by an in-memory adapter in tests.
  - Document: An id plus its raw JSON payload. Decoding into domain types
    is the caller's responsibility (see the catalog assembler).
  - ErrNotFound: The one sentinel — a missing document is an outcome, not
    an I/O failure.

The store provides standard eventual read-after-write consistency per
document; nothing here papers over that.
*/
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document does not exist in its collection.
var ErrNotFound = errors.New("docstore: document not found")

// Document is a stored JSON document with its store-assigned id.
//
// Data is the raw JSON object as persisted. The id is never duplicated
// inside Data — callers stitch it back in when decoding.
type Document struct {
	ID   string
	Data []byte
}

// Store is the operation surface consumed from the remote document store.
type Store interface {

	/*
		Get returns a single document by id.

		Returns:
		  - Document: The raw stored document
		  - error: ErrNotFound if absent, otherwise I/O failures
	*/
	Get(context context.Context, collection, id string) (Document, error)

	/*
		List returns every document in a collection, newest first.

		Description: Ordering is by store-side creation time descending.
		Callers needing any other order must sort client-side.
	*/
	List(context context.Context, collection string) ([]Document, error)

	/*
		Query returns the documents whose named field equals value.

		Description: A plain equality filter (e.g. chapters by manga_id).
		No store-side ordering is assumed from the result.
	*/
	Query(context context.Context, collection, field, value string) ([]Document, error)

	/*
		Create persists fields as a new document and returns the assigned id.
	*/
	Create(context context.Context, collection string, fields map[string]any) (string, error)

	/*
		Update merges fields into an existing document (partial update).

		Description: Fields not present in the input are left untouched.
		Returns ErrNotFound if the document does not exist.
	*/
	Update(context context.Context, collection, id string, fields map[string]any) error

	/*
		Delete removes a document. Deleting an absent document is a no-op,
		matching managed document store semantics.
	*/
	Delete(context context.Context, collection, id string) error

	/*
		Increment atomically adds delta to a numeric field of a document.

		Returns ErrNotFound if the document does not exist.
	*/
	Increment(context context.Context, collection, id, field string, delta int64) error
}
