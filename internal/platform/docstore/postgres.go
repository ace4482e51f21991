// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/toshoapp/tosho/pkg/uuid"
)

// # PostgreSQL Adapter

// postgresStore implements [Store] on top of a single jsonb documents table.
//
// Documents stay opaque to the schema: one row per document, the payload in
// a jsonb column. Partial updates use the jsonb concatenation operator and
// increments use jsonb_set inside a single UPDATE, which keeps both
// operations atomic without explicit transactions.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL backed document store.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

/*
Get returns a single document by id.

Parameters:
  - context: context.Context
  - collection: string
  - id: string

Returns:
  - Document: The raw stored document
  - error: ErrNotFound or query failures
*/
func (store *postgresStore) Get(context context.Context, collection, id string) (Document, error) {
	var data []byte

	err := store.pool.QueryRow(context,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("docstore: get %s/%s failed: %w", collection, id, err)
	}

	return Document{ID: id, Data: data}, nil
}

/*
List returns every document in a collection, newest first.
*/
func (store *postgresStore) List(context context.Context, collection string) ([]Document, error) {
	rows, err := store.pool.Query(context,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at DESC, id DESC`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s failed: %w", collection, err)
	}
	defer rows.Close()

	return scanDocuments(rows, collection)
}

/*
Query returns the documents whose named field equals value.
*/
func (store *postgresStore) Query(context context.Context, collection, field, value string) ([]Document, error) {
	rows, err := store.pool.Query(context,
		`SELECT id, data FROM documents WHERE collection = $1 AND data->>$2 = $3`,
		collection, field, value,
	)
	if err != nil {
		return nil, fmt.Errorf("docstore: query %s.%s failed: %w", collection, field, err)
	}
	defer rows.Close()

	return scanDocuments(rows, collection)
}

/*
Create persists fields as a new document and returns the assigned id.

Description: Ids are UUID v7, assigned store-side so that the physical
insertion order and the id order agree.
*/
func (store *postgresStore) Create(context context.Context, collection string, fields map[string]any) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("docstore: encode %s document failed: %w", collection, err)
	}

	id := uuid.New()

	_, err = store.pool.Exec(context,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`,
		collection, id, payload,
	)
	if err != nil {
		return "", fmt.Errorf("docstore: create in %s failed: %w", collection, err)
	}

	return id, nil
}

/*
Update merges fields into an existing document (partial update).

Description: The jsonb || operator performs a shallow merge — provided
top-level fields replace stored ones, everything else is untouched.
*/
func (store *postgresStore) Update(context context.Context, collection, id string, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("docstore: encode %s update failed: %w", collection, err)
	}

	tag, err := store.pool.Exec(context,
		`UPDATE documents SET data = data || $3::jsonb WHERE collection = $1 AND id = $2`,
		collection, id, payload,
	)
	if err != nil {
		return fmt.Errorf("docstore: update %s/%s failed: %w", collection, id, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

/*
Delete removes a document. Absent documents are a no-op.
*/
func (store *postgresStore) Delete(context context.Context, collection, id string) error {
	_, err := store.pool.Exec(context,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("docstore: delete %s/%s failed: %w", collection, id, err)
	}

	return nil
}

/*
Increment atomically adds delta to a numeric field of a document.

Description: COALESCE treats a missing field as zero, so the first
increment materializes the counter.
*/
func (store *postgresStore) Increment(context context.Context, collection, id, field string, delta int64) error {
	tag, err := store.pool.Exec(context,
		`UPDATE documents
		 SET data = jsonb_set(data, ARRAY[$3], to_jsonb(COALESCE((data->>$3)::bigint, 0) + $4))
		 WHERE collection = $1 AND id = $2`,
		collection, id, field, delta,
	)
	if err != nil {
		return fmt.Errorf("docstore: increment %s/%s.%s failed: %w", collection, id, field, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// scanDocuments drains a pgx row set into documents.
func scanDocuments(rows pgx.Rows, collection string) ([]Document, error) {
	var documents []Document

	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return nil, fmt.Errorf("docstore: scan %s row failed: %w", collection, err)
		}
		documents = append(documents, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: iterate %s failed: %w", collection, err)
	}

	return documents, nil
}
