package venue

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	sapiBaseURL     = "https://api.binance.com"
	sapiRecvWindow  = "5000"
	sapiHTTPTimeout = 30 * time.Second
)

// sapiClient signs and executes requests against /sapi endpoints that the
// SDK does not expose: HMAC-SHA256 over the query string, key in the
// X-MBX-APIKEY header.
type sapiClient struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *http.Client
	now       func() time.Time
}

func newSAPIClient(apiKey, apiSecret string) *sapiClient {
	return &sapiClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   sapiBaseURL,
		http:      &http.Client{Timeout: sapiHTTPTimeout},
		now:       time.Now,
	}
}

func (c *sapiClient) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *sapiClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("recvWindow", sapiRecvWindow)
	params.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))

	query := params.Encode()
	endpoint := c.baseURL + path + "?" + query + "&signature=" + c.sign(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrapf(err, "build request %s", path)
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read response %s", path)
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("binance %s: HTTP %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode response %s", path)
	}

	return nil
}
