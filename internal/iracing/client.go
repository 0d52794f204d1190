package iracing

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/Herbstein/iracing-driver-data-dump/internal/components/telemetry"
	"github.com/Herbstein/iracing-driver-data-dump/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const DefaultBaseUrl = "https://members-ng.iracing.com/"

const (
	report_client_login       = "client.login"
	report_client_fetch_link  = "client.fetch-link"
	report_client_get_members = "client.get-members"
)

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// Telemetry defaults to telemetry.SlogAPI.
	Telemetry telemetry.API
	// InstrumentOutput receives a dump of every http exchange if it is not nil.
	InstrumentOutput restyutil.InstrumentOutput
	// RequestsPerSecond defaults to 2, rate.Inf disables pacing.
	RequestsPerSecond rate.Limit
	// Timeout of a single request, defaults to 30 seconds.
	Timeout time.Duration
}

// Client is an authenticated session with the iRacing member api.
// It is not safe for concurrent use.
type Client struct {
	baseUrl *url.URL
	http    *resty.Client
	tel     telemetry.API
}

func newClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Telemetry == nil {
		opts.Telemetry = telemetry.SlogAPI{}
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	tel := telemetry.NewScopedAPI("iracing", opts.Telemetry)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if !baseUrl.IsAbs() {
		return nil, fmt.Errorf("base url must be absolute: %q", opts.BaseUrl)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.SetHeader("accept", "application/json")
	httpClient.SetTimeout(opts.Timeout)

	// max burst >= requests per second just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(opts.RequestsPerSecond, 2)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.InstrumentClient(httpClient, tracer, opts.InstrumentOutput)

	return &Client{
		baseUrl: baseUrl,
		http:    httpClient,
		tel:     tel,
	}, nil
}

// Login creates a session by authenticating with the given credentials,
// the session cookie is kept for every request made through the returned Client.
func Login(ctx context.Context, email, password string, opts ClientOptions) (*Client, error) {
	c, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	err = c.login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// BaseUrl returns the origin every relative api path is resolved against.
func (c *Client) BaseUrl() *url.URL {
	return c.baseUrl
}

func (c *Client) login(ctx context.Context, email, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	loginError := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return fmt.Errorf("login: %w", err)
	}

	requestCounter.Add(ctx, 1, endpointAttr("auth"))
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{
			Email:    email,
			Password: HashCredentials(password, email),
		}).
		Post("auth")
	if err != nil {
		// the transport failure itself is reported as broken by the resty instrumentation
		c.tel.ReportWarning(report_client_login, fmt.Errorf("fetch: %w", err))
		return loginError(err)
	}

	err = classifyResponse(res)
	if err != nil {
		c.tel.ReportWarning(report_client_login, err)
		return loginError(err)
	}

	c.tel.ReportDebug(report_client_login, "session established")
	return nil
}
