package woo

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// WOO X API error codes the connector distinguishes.
const (
	codeTooManyRequests  = -1003
	codeResourceNotFound = -1006
	codeDuplicateRequest = -1007
	codeRPCNotConnected  = -1011
	codeRiskTooHigh      = -1101
)

type apiResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (r *apiResponse) result() *apiResponse { return r }

type response interface {
	result() *apiResponse
}

// apiError is a failed WOO X response.
type apiError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *apiError) Error() string {
	return "woo: " + http.StatusText(e.StatusCode) + ": " + e.Message
}

// client is a thin signed REST client over resty.
type client struct {
	http   *resty.Client
	signer *signer
}

func newClient(rest *resty.Client, signer *signer) *client {
	return &client{http: rest, signer: signer}
}

// call sends a request and decodes the response into out. Signed requests
// carry the auth headers; params travel as a form body for POST and as the
// query string otherwise.
func (c *client) call(ctx context.Context, method, path string, params url.Values, signed bool, out response) error {
	failure := &apiResponse{}

	req := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(failure)

	if signed {
		req.SetHeaders(c.signer.headers(params))
	}

	if method == http.MethodPost {
		req.SetFormDataFromValues(params)
	} else {
		req.SetQueryParamsFromValues(params)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}

	if resp.IsError() {
		return &apiError{StatusCode: resp.StatusCode(), Code: failure.Code, Message: failure.Message}
	}

	if body := out.result(); !body.Success {
		return &apiError{StatusCode: resp.StatusCode(), Code: body.Code, Message: body.Message}
	}

	return nil
}

// mapError classifies a transport or API error into the connector taxonomy.
func mapError(ctx context.Context, err error, message string) error {
	var apiErr *apiError
	if stderrors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.Code == codeTooManyRequests:
			return errors.Wrap(errors.ErrCodeRateLimited, message, err)
		case apiErr.Code == codeRPCNotConnected || apiErr.StatusCode >= http.StatusInternalServerError:
			return errors.Wrap(errors.ErrCodeDisconnected, message, err)
		case apiErr.Code == codeResourceNotFound || apiErr.StatusCode == http.StatusNotFound:
			return errors.Wrap(errors.ErrCodeNotFound, message, err)
		case apiErr.Code == codeDuplicateRequest:
			return errors.Wrap(errors.ErrCodeDuplicateOrder, message, err)
		case apiErr.Code == codeRiskTooHigh || strings.Contains(strings.ToLower(apiErr.Message), "insufficient"):
			return errors.Wrap(errors.ErrCodeInsufficientBalance, message, err)
		default:
			return errors.Wrap(errors.ErrCodeVenueRejected, message, err)
		}
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) || ctx.Err() != nil {
		return errors.Wrap(errors.ErrCodeTimeout, message, err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(errors.ErrCodeTimeout, message, err)
	}

	return errors.Wrap(errors.ErrCodeDisconnected, message, err)
}
