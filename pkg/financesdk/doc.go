/*
Package financesdk is a client for the dimbox personal-finance REST API.

# Overview

A Client wraps every outbound call. It reads credentials from a TokenSource,
attaches them as a bearer header, and exposes typed operations for the
profile, transactions, CSV export and admin endpoints:

	client := financesdk.NewClient("http://localhost:8000/api", store)

	result, err := client.Login(ctx, "alice", "secret")
	if err != nil {
		return err
	}
	// persist result.Tokens and result.Profile together

	txs, err := client.ListTransactions(ctx, financesdk.TransactionFilter{})

# Token Refresh

Access tokens are short-lived. When a request comes back 401 and the
TokenSource holds a refresh token, the client posts it to /token/refresh/,
stores the new access token and retries the original request once. The
retry never triggers a second refresh. If the refresh itself fails the
TokenSource is cleared, the hooks registered with OnAuthFailure run, and
the original 401 is returned.

Concurrent requests that fail at the same time share a single refresh call.

Requests can opt out with Request.NoRefresh. Authenticate, RefreshAccess,
Register and the profile fetch inside Login always do.

# Error Handling

Errors come in three kinds:

  - *ValidationError: input rejected before anything was sent
  - *APIError: the backend answered with a non-2xx status
  - *TransportError: no response at all (DNS, connection reset, timeout)

	tx, err := client.CreateTransaction(ctx, in)
	var verr *financesdk.ValidationError
	if errors.As(err, &verr) {
		// show verr.Field and verr.Reason
	}
	if apiErr, ok := financesdk.AsAPIError(err); ok {
		// apiErr.Message is the backend's "detail", apiErr.FieldErrors() the rest
	}

Validation errors unwrap to sentinels such as ErrInvalidAmount.

# Transaction Types

The backend encodes the kind of a transaction as transaction_type IN or OUT.
TransactionType decodes both those codes and the INCOME/EXPENSE names and
rejects anything else; the kind is never inferred from the amount.
*/
package financesdk
