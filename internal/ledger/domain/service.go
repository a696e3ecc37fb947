package domain

import (
	"context"
	"errors"
)

// Detail is a transaction with its lines and refund history.
type Detail struct {
	Transaction Transaction       `json:"transaction"`
	Items       []TransactionItem `json:"items"`
	Refunds     []Refund          `json:"refunds,omitempty"`
}

type Page struct {
	Transactions  []Transaction `json:"transactions"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

// Service is the read side of the ledger. Writes go through the checkout
// coordinator so they stay inside its database transaction.
type Service interface {
	Get(ctx context.Context, id string) (Detail, error)
	GetByNumber(ctx context.Context, number string) (Detail, error)
	List(ctx context.Context, req ListRequest) (Page, error)
}

var (
	ErrInvalidID = errors.New("invalid_transaction_id")
	ErrNotFound  = errors.New("transaction_not_found")
)
