package slackapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

type captureKey struct{}

// capture holds the body of the last 200 reply sent for one call.
type capture struct {
	body []byte
	done bool
}

func (c *capture) received() bool {
	return c != nil && c.done
}

// withCapture marks ctx so capturingTransport records the reply body.
func withCapture(ctx context.Context) (context.Context, *capture) {
	c := &capture{}
	return context.WithValue(ctx, captureKey{}, c), c
}

// capturingTransport copies 200 reply bodies into the request's capture
// and hands slack-go an identical body to decode.
type capturingTransport struct {
	next http.RoundTripper
}

func (t capturingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	c, _ := req.Context().Value(captureKey{}).(*capture)
	if c == nil {
		return resp, nil
	}
	if resp.StatusCode != http.StatusOK {
		c.body, c.done = nil, false
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	c.body, c.done = body, true
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
