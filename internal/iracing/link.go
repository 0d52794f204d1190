package iracing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// apiResponse is either a successful payload or a failure, never both.
type apiResponse[T any] struct {
	Data *T
	// failure holds why the payload did not match T, it is kept for
	// diagnostics only and never returned to callers.
	failure error
}

// unwrap returns the payload, or ErrUnknownApiResponse for the failure variant.
func (r apiResponse[T]) unwrap() (T, error) {
	if r.Data == nil {
		var empty T
		return empty, ErrUnknownApiResponse
	}
	return *r.Data, nil
}

// validator is implemented by payloads that have required fields.
type validator interface {
	validate() error
}

// decodeApiResponse tries the success shape first and falls back to the failure
// variant. Only a body that is not json at all is a decoding error.
func decodeApiResponse[T any](body []byte) (apiResponse[T], error) {
	var raw json.RawMessage
	err := json.Unmarshal(body, &raw)
	if err != nil {
		return apiResponse[T]{}, &DeserializationError{What: "payload", Err: err}
	}

	var data T
	err = json.Unmarshal(body, &data)
	if err == nil {
		if v, ok := any(data).(validator); ok {
			err = v.validate()
		}
	}
	if err != nil {
		return apiResponse[T]{failure: err}, nil
	}
	return apiResponse[T]{Data: &data}, nil
}

func decodeLink(body []byte) (*url.URL, error) {
	var res linkResponse
	err := json.Unmarshal(body, &res)
	if err != nil {
		return nil, &DeserializationError{What: "link", Err: err}
	}
	link, err := url.Parse(res.Link)
	if err != nil {
		return nil, &DeserializationError{What: "link", Err: err}
	}
	if !link.IsAbs() {
		return nil, &DeserializationError{
			What: "link",
			Err:  fmt.Errorf("expected an absolute url, got %q", res.Link),
		}
	}
	return link, nil
}

// fetchLink executes `req`, which must return a link object, then retrieves
// the payload the link points to. The link is used once and never cached.
func fetchLink[T any](ctx context.Context, c *Client, req *resty.Request, method, path string) (apiResponse[T], error) {
	ctx, span := tracer.Start(ctx, "client:fetchLink")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	fail := func(err error) (apiResponse[T], error) {
		c.tel.ReportBroken(report_client_fetch_link, err, path)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch link failed")
		return apiResponse[T]{}, err
	}
	// transport failures are already reported as broken by the resty instrumentation
	failTransport := func(err error) (apiResponse[T], error) {
		c.tel.ReportWarning(report_client_fetch_link, err, path)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch link failed")
		return apiResponse[T]{}, err
	}

	requestCounter.Add(ctx, 1, endpointAttr(path))
	res, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		return failTransport(fmt.Errorf("request link: %w", err))
	}
	err = classifyResponse(res)
	if err != nil {
		return fail(err)
	}

	link, err := decodeLink(res.Body())
	if err != nil {
		return fail(err)
	}
	c.tel.ReportDebug(report_client_fetch_link, path, link.Host)

	requestCounter.Add(ctx, 1, endpointAttr("link"))
	res, err = c.http.R().
		SetContext(ctx).
		Get(link.String())
	if err != nil {
		return failTransport(fmt.Errorf("request payload: %w", err))
	}
	err = classifyResponse(res)
	if err != nil {
		return fail(err)
	}

	decoded, err := decodeApiResponse[T](res.Body())
	if err != nil {
		return fail(err)
	}
	if decoded.failure != nil {
		c.tel.ReportDebug(report_client_fetch_link, path, "unrecognized payload", decoded.failure)
	}
	return decoded, nil
}
