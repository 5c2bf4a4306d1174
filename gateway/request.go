package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jrsteele09/go-storefront-client/internal/errors"
)

const contentTypeJSON = "application/json"

// Request is one logical call to the API. Body is JSON-encoded unless it is
// already a []byte or an io.Reader; it is read once so the call can be
// replayed after a renewal. Header values replace the defaults.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns an *errors.APIError for non-2xx responses and nil otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return errors.NewAPIError(r.StatusCode, r.Body)
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrapf(err, "failed to decode response body")
	}
	return nil
}

// attempt is a single transmission of a Request. Replays are new values
// produced by retry; an attempt is never modified once sent.
type attempt struct {
	request     *Request
	body        []byte
	contentType string
	credential  string
	requestID   string
	retried     bool
}

func (a attempt) retry(credential string) attempt {
	a.credential = credential
	a.retried = true
	return a
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, contentTypeJSON, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", errors.Wrapf(err, "failed to read request body")
		}
		return data, contentTypeJSON, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", errors.Wrapf(err, "failed to encode request body")
		}
		return data, contentTypeJSON, nil
	}
}
