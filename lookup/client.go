package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultURL is the public color naming endpoint
const DefaultURL = "https://www.thecolorapi.com/id"

// DefaultTimeout bounds a single name request
const DefaultTimeout = 5 * time.Second

var (
	// ErrLookupFailed covers transport errors, timeouts and non-2xx replies
	ErrLookupFailed = errors.New("color lookup failed")
	// ErrNoName means the reply parsed but carried no name.value
	ErrNoName = errors.New("color lookup returned no name")
)

// RGB is an exact 8-bit color, also the cache key
type RGB struct {
	R, G, B uint8
}

// Query formats the color the way the naming service expects it
func (c RGB) Query() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// Namer resolves a color to a human-readable name
type Namer interface {
	Name(ctx context.Context, c RGB) (string, error)
}

// colorResponse is the subset of the service reply we use
type colorResponse struct {
	Name struct {
		Value string `json:"value"`
	} `json:"name"`
}

// HTTPNamer asks a thecolorapi-compatible endpoint for color names
type HTTPNamer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPNamer creates a namer for endpoint with a per-request timeout
func NewHTTPNamer(endpoint string, timeout time.Duration) *HTTPNamer {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPNamer{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name performs one GET <endpoint>?rgb=rgb(R,G,B) and returns name.value
func (n *HTTPNamer) Name(ctx context.Context, c RGB) (string, error) {
	u, err := url.Parse(n.endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: bad endpoint %q: %v", ErrLookupFailed, n.endpoint, err)
	}
	q := u.Query()
	q.Set("rgb", c.Query())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: %s returned %d", ErrLookupFailed, c.Query(), resp.StatusCode)
	}

	var body colorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decoding reply for %s: %v", ErrLookupFailed, c.Query(), err)
	}
	if body.Name.Value == "" {
		return "", fmt.Errorf("%w: %s", ErrNoName, c.Query())
	}
	return body.Name.Value, nil
}
