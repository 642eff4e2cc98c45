package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/autotp-labs/autotp-server/pkg/metrics"
)

// Reference: https://station.jup.ag/docs/apis/price-api

const (
	DefaultApiBaseUrl = "https://api.jup.ag/price/v2/"

	priceEndpointName = "price"

	metricsStructName = "jupiter.client"
)

var ErrPriceNotFound = errors.New("price not found for mint")

type Client struct {
	baseUrl    string
	httpClient *http.Client
}

// NewClient returns a new Jupiter client for fetching token prices
func NewClient(baseUrl string) *Client {
	return &Client{
		baseUrl:    baseUrl,
		httpClient: http.DefaultClient,
	}
}

// GetPrice gets the current quote price for a single mint
func (c *Client) GetPrice(ctx context.Context, mint string) (decimal.Decimal, error) {
	prices, err := c.GetPrices(ctx, mint)
	if err != nil {
		return decimal.Zero, err
	}

	price, ok := prices[mint]
	if !ok {
		return decimal.Zero, ErrPriceNotFound
	}
	return price, nil
}

// GetPrices gets current quote prices for a batch of mints
func (c *Client) GetPrices(ctx context.Context, mints ...string) (map[string]decimal.Decimal, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetPrices")
	defer tracer.End()

	url := fmt.Sprintf(
		"%s%s?ids=%s",
		c.baseUrl,
		priceEndpointName,
		strings.Join(mints, ","),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error creating http request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error executing http request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error reading response body")
	}

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("received http status %d: %s", resp.StatusCode, string(respBody))
		tracer.OnError(err)
		return nil, err
	}

	var parsed jsonPriceResponse
	err = json.Unmarshal(respBody, &parsed)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error unmarshalling json response")
	}

	res := make(map[string]decimal.Decimal, len(parsed.Data))
	for mint, data := range parsed.Data {
		if data == nil || len(data.Price) == 0 {
			continue
		}

		price, err := decimal.NewFromString(data.Price)
		if err != nil {
			tracer.OnError(err)
			return nil, errors.Wrapf(err, "error parsing price for mint %s", mint)
		}
		res[mint] = price
	}
	return res, nil
}

type jsonPriceResponse struct {
	Data map[string]*jsonPriceData `json:"data"`
}

type jsonPriceData struct {
	Id    string `json:"id"`
	Price string `json:"price"`
}
