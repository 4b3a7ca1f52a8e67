package proxyclient

import "errors"

// Sentinel errors for proxy client operations.

// ErrServerURLMissing indicates no proxy server URL was provided.
var ErrServerURLMissing = errors.New("proxy server URL is not configured")

// ErrServerURLParse indicates an error occurred while parsing the proxy server URL.
var ErrServerURLParse = errors.New("failed to parse proxy server URL")

// ErrRequestMarshal indicates an error occurred while marshaling the request body.
var ErrRequestMarshal = errors.New("failed to marshal request body")

// ErrRequestCreate indicates an error occurred while creating the HTTP request.
var ErrRequestCreate = errors.New("failed to create HTTP request")

// ErrResponseDecode indicates an error occurred while decoding the response body.
var ErrResponseDecode = errors.New("failed to decode response body")

// ErrUnauthorized indicates the proxy rejected the request for lack of a credential.
var ErrUnauthorized = errors.New("proxy rejected the request: missing or invalid API key")

// ErrProxyError indicates the proxy returned a non-200 status with a specific message.
var ErrProxyError = errors.New("proxy returned an error")
