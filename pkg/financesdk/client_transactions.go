package financesdk

import (
	"context"
	"fmt"
	"net/http"
)

// ListTransactions returns the user's transactions, newest first.
func (c *Client) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	resp, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/transactions/",
		Query:  filter.values(),
	})
	if err != nil {
		return nil, err
	}

	var txs []Transaction
	if err := resp.Decode(&txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// CreateTransaction validates in and creates it.
func (c *Client) CreateTransaction(ctx context.Context, in TransactionInput) (*Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/transactions/", Body: in})
	if err != nil {
		return nil, err
	}
	return decodeTransaction(resp)
}

// UpdateTransaction validates in and replaces transaction id with it.
func (c *Client) UpdateTransaction(ctx context.Context, id int64, in TransactionInput) (*Transaction, error) {
	if id <= 0 {
		return nil, invalid("id", ErrInvalidID)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.Do(ctx, Request{Method: http.MethodPut, Path: transactionPath(id), Body: in})
	if err != nil {
		return nil, err
	}
	return decodeTransaction(resp)
}

// DeleteTransaction removes transaction id.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	if id <= 0 {
		return invalid("id", ErrInvalidID)
	}
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: transactionPath(id)})
	return err
}

func transactionPath(id int64) string {
	return fmt.Sprintf("/transactions/%d/", id)
}

func decodeTransaction(resp *Response) (*Transaction, error) {
	var tx Transaction
	if err := resp.Decode(&tx); err != nil {
		return nil, err
	}
	return &tx, nil
}
