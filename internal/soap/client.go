// Package soap implements vision.Endpoint over SOAP 1.1 on HTTP.
//
// Each Call posts one envelope holding the operation element and its
// parameters as child elements, and returns the text of the
// <Operation>Result element of the response. Vision returns its XML results
// escaped inside that element, so the text is the raw payload.
package soap

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/ginjaninja78/vision-connector/internal/vision"
)

var logger = loggo.GetLogger("vision.soap")

const (
	// DefaultNamespace is the target namespace of the Vision web service.
	DefaultNamespace = "http://tempuri.org/"

	// DefaultTimeout bounds one round trip.
	DefaultTimeout = 5 * time.Minute

	envelopeNamespace = "http://schemas.xmlsoap.org/soap/envelope/"
	contentType       = "text/xml; charset=utf-8"

	// maxResponseSize caps the response body read into memory.
	maxResponseSize = 256 << 20
)

// Config holds the settings of a Client.
type Config struct {
	// URL of the web service, for example
	// https://vision.example.com/Vision/VisionWS.asmx.
	URL string

	// Namespace defaults to DefaultNamespace.
	Namespace string

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// Username and Password enable HTTP basic authentication in front of
	// the service.
	Username string
	Password string

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.NotValidf("empty service URL")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return errors.NewNotValid(err, "service URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NotValidf("service URL scheme %q", u.Scheme)
	}
	if c.Timeout < 0 {
		return errors.NotValidf("negative timeout")
	}
	return nil
}

// Client calls the Vision web service.
type Client struct {
	url       string
	namespace string
	username  string
	password  string
	http      *http.Client
}

var _ vision.Endpoint = (*Client)(nil)

// New returns a Client for cfg.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		url:       cfg.URL,
		namespace: cfg.Namespace,
		username:  cfg.Username,
		password:  cfg.Password,
		http:      httpClient,
	}, nil
}

// Call implements vision.Endpoint.
func (c *Client) Call(ctx context.Context, req vision.Request) (string, error) {
	body, err := c.envelope(req)
	if err != nil {
		return "", errors.Trace(err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Trace(err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("SOAPAction", `"`+c.action(req.Operation)+`"`)
	if c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", errors.Annotatef(err, "posting %s", req.Operation)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", errors.Annotatef(err, "reading %s response", req.Operation)
	}
	logger.Debugf("%s answered %d in %v (%d bytes)", req.Operation, resp.StatusCode, time.Since(start), len(data))

	result, err := c.result(req.Operation, data)
	if err != nil {
		if resp.StatusCode/100 != 2 {
			return "", errors.Annotatef(err, "%s returned HTTP %d", req.Operation, resp.StatusCode)
		}
		return "", errors.Trace(err)
	}
	return result, nil
}

func (c *Client) action(op string) string {
	if strings.HasSuffix(c.namespace, "/") {
		return c.namespace + op
	}
	return c.namespace + "/" + op
}

// envelope renders the request as a SOAP 1.1 envelope.
func (c *Client) envelope(req vision.Request) ([]byte, error) {
	if req.Operation == "" {
		return nil, errors.NotValidf("empty operation")
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	env := doc.CreateElement("soap:Envelope")
	env.CreateAttr("xmlns:soap", envelopeNamespace)
	op := env.CreateElement("soap:Body").CreateElement(req.Operation)
	op.CreateAttr("xmlns", c.namespace)
	for _, p := range req.Params {
		op.CreateElement(p.Name).SetText(p.Value)
	}
	return doc.WriteToBytes()
}

// result extracts the operation result, or the fault, from a response.
func (c *Client) result(op string, data []byte) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return "", errors.Annotatef(err, "parsing %s response", op)
	}
	env := doc.SelectElement("Envelope")
	if env == nil {
		return "", errors.NotValidf("%s response without a SOAP envelope", op)
	}
	body := env.SelectElement("Body")
	if body == nil {
		return "", errors.NotValidf("%s response without a SOAP body", op)
	}
	if fault := body.SelectElement("Fault"); fault != nil {
		return "", &Fault{
			Code:   childText(fault, "faultcode"),
			String: childText(fault, "faultstring"),
		}
	}
	resp := body.SelectElement(op + "Response")
	if resp == nil {
		return "", errors.NotFoundf("%sResponse element", op)
	}
	return childText(resp, op+"Result"), nil
}

// Fault is a SOAP fault returned by the service.
type Fault struct {
	Code   string
	String string
}

func (f *Fault) Error() string {
	return "soap fault " + f.Code + ": " + f.String
}

func childText(el *etree.Element, tag string) string {
	if child := el.SelectElement(tag); child != nil {
		return strings.TrimSpace(child.Text())
	}
	return ""
}
