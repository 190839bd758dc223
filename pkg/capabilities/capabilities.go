// Package capabilities implements the HTTPS/LLSD side channel described
// in §4.M: POSTing a seed-capability URL with the names of the
// capabilities a viewer wants, and exposing the returned URL table under
// typed accessors. Grounded structurally on the teacher's session/client
// request-response shape in `source/protocol/rpc.go` (one call out, one
// typed result in), generalized to HTTP since the teacher has no
// out-of-band channel of its own — the request/response pairing and
// error-wrapping idiom are what carry over, not any wire format.
package capabilities

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"golang.org/x/net/http2"

	"github.com/opensim-go/viewercircuit/pkg/llsd"
)

// GetTexture is the one capability every client requests at minimum, per
// §4.M.
const GetTexture = "GetTexture"

// DefaultCapabilityNames is the minimal request sent to a seed
// capability when the caller doesn't need anything beyond texture
// fetching.
var DefaultCapabilityNames = []string{GetTexture}

// Table is the strongly-typed capability URL table returned by a seed
// request: capability name -> HTTPS URL.
type Table struct {
	urls map[string]string
}

// URL looks up a capability's URL by name.
func (t Table) URL(name string) (string, bool) {
	u, ok := t.urls[name]
	return u, ok
}

// MustURL looks up a capability's URL, returning an error naming the
// capability if it was not granted.
func (t Table) MustURL(name string) (string, error) {
	u, ok := t.urls[name]
	if !ok {
		return "", errors.Errorf("capabilities: %q was not granted", name)
	}
	return u, nil
}

// Client fetches a capability table from a seed URL and performs simple
// capability-backed requests (texture fetch) against it.
type Client struct {
	http *http.Client
}

// NewClient returns a Client using an HTTP/2-aware transport, since
// simulators serve capabilities over HTTPS and real deployments
// negotiate h2.
func NewClient() *Client {
	transport := &http.Transport{}
	// Best-effort: configure ALPN/h2 support on the transport. A
	// failure here just means requests fall back to HTTP/1.1.
	_ = http2.ConfigureTransport(transport)
	return &Client{http: &http.Client{Transport: transport}}
}

// Seed POSTs an LLSD-XML array of requested capability names to seedURL
// and parses the LLSD map response into a Table, per §4.M's content-type
// contract: request `application/llsd+xml`, response `application/xml`.
func (c *Client) Seed(ctx context.Context, seedURL string, names []string) (Table, error) {
	items := make([]llsd.Value, len(names))
	for i, n := range names {
		items[i] = llsd.NewString(n)
	}
	body := llsd.WriteXML(llsd.NewArray(items))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, seedURL, bytes.NewReader(body))
	if err != nil {
		return Table{}, errors.Wrap(err, "capabilities: building seed request")
	}
	req.Header.Set("Content-Type", "application/llsd+xml")
	req.Header.Set("Accept", "application/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return Table{}, errors.Wrap(err, "capabilities: seed request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Table{}, errors.Wrap(err, "capabilities: reading seed response")
	}
	if resp.StatusCode != http.StatusOK {
		return Table{}, errors.Errorf("capabilities: seed request: unexpected status %s", resp.Status)
	}

	v, err := llsd.ReadXML(respBody)
	if err != nil {
		return Table{}, errors.Wrap(err, "capabilities: parsing seed response")
	}
	m, ok := v.Map()
	if !ok {
		return Table{}, errors.New("capabilities: seed response was not an LLSD map")
	}

	table := Table{urls: make(map[string]string, len(m))}
	for name, val := range m {
		s, ok := val.ToString()
		if !ok {
			continue
		}
		table.urls[name] = s
	}
	return table, nil
}

// FetchTexture performs the §6 "texture fetch" HTTPS GET against the
// GetTexture capability for the given asset id, returning the raw
// (opaque, JPEG2000) response body. Decoding it is pkg/texture's job.
func (c *Client) FetchTexture(ctx context.Context, table Table, textureID string) ([]byte, error) {
	base, err := table.MustURL(GetTexture)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrap(err, "capabilities: parsing GetTexture URL")
	}
	q := u.Query()
	q.Set("texture_id", textureID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "capabilities: building texture request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "capabilities: texture request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("capabilities: texture fetch: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
