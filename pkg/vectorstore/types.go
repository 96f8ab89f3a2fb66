// Package vectorstore persists schema embeddings and answers similarity and
// metadata queries over them.
package vectorstore

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyFilter is returned by DeleteMany when no filter field is set.
var ErrEmptyFilter = errors.New("vectorstore: refusing to delete with an empty filter")

// Metadata is the payload stored next to every vector.
type Metadata struct {
	ConnectionID   string    `json:"connectionId"`
	ConnectionName string    `json:"connectionName"`
	DBType         string    `json:"dbType"`
	TableName      string    `json:"tableName"`
	Text           string    `json:"text"`
	Columns        string    `json:"columns"`
	Pipeline       string    `json:"pipeline"`
	Type           string    `json:"type"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Record struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"-"`
	Metadata Metadata  `json:"metadata"`
}

type Match struct {
	ID       string   `json:"id"`
	Score    float32  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// Filter is an equality filter over metadata. Empty fields are unconstrained.
type Filter struct {
	ConnectionID string
	Pipeline     string
	Type         string
	TableName    string
}

func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// Matches reports whether m satisfies every set field of f
func (f Filter) Matches(m Metadata) bool {
	if f.ConnectionID != "" && f.ConnectionID != m.ConnectionID {
		return false
	}
	if f.Pipeline != "" && f.Pipeline != m.Pipeline {
		return false
	}
	if f.Type != "" && f.Type != m.Type {
		return false
	}
	if f.TableName != "" && f.TableName != m.TableName {
		return false
	}
	return true
}

type QueryRequest struct {
	Vector []float32
	TopK   int
	Filter Filter
}

// ListRequest pages through records in ID order. Cursor is the last ID of the
// previous page, empty for the first page.
type ListRequest struct {
	Filter Filter
	Cursor string
	Limit  int
}

type ListPage struct {
	Records []Record
	// NextCursor is empty when there are no more pages.
	NextCursor string
}

type Store interface {
	Query(ctx context.Context, req QueryRequest) ([]Match, error)
	Upsert(ctx context.Context, records []Record) error
	// DeleteMany removes every record matching filter and returns how many were removed.
	DeleteMany(ctx context.Context, filter Filter) (int, error)
	List(ctx context.Context, req ListRequest) (*ListPage, error)
}
