package core

import "fmt"

// CredentialError indicates the service could not mint or exchange GitHub App
// credentials: a malformed signing key, a failed token exchange, or an empty
// token in the exchange response. It is never retried by the core.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("github credential error: %v", e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// UpstreamAPIError indicates a GitHub API call returned a non-success result.
// It propagates up to the job boundary, where it is logged and suppressed.
type UpstreamAPIError struct {
	Op  string
	Err error
}

func (e *UpstreamAPIError) Error() string {
	return fmt.Sprintf("github api error during %s: %v", e.Op, e.Err)
}

func (e *UpstreamAPIError) Unwrap() error {
	return e.Err
}
