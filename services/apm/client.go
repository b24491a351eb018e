// Package apm is a client for the vendor asset-performance-management
// API: indicator discovery, timeseries measurement reads and alert
// creation, authenticated through a cached client-credentials token.
package apm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"pdm-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("apm/client")

type EquipmentConfig struct {
	Number string `json:"number"`
	SSID   string `json:"ssid"`
	Type   string `json:"type"`
}

type Config struct {
	OAuthTokenUrl      string          `json:"oauth_token_url"`
	ClientId           string          `json:"client_id"`
	ClientSecret       string          `json:"client_secret"`
	ApiKey             string          `json:"api_key"`
	IndicatorEndpoint  string          `json:"indicator_endpoint"`
	TimeseriesEndpoint string          `json:"timeseries_endpoint"`
	AlertEndpoint      string          `json:"alert_endpoint"`
	AlertType          string          `json:"alert_type"`
	Equipment          EquipmentConfig `json:"equipment"`
}

type Client struct {
	http *resty.Client
	cfg  Config

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time

	charToFeature map[string]string
	positionId    string
	categoryName  string
}

func NewClient(cfg Config) *Client {
	client := resty.New()
	client.SetTimeout(time.Second * 15)
	telemetry.InstrumentResty(client, "apm/http")

	return &Client{
		http:          client,
		cfg:           cfg,
		charToFeature: map[string]string{},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns the cached client-credentials token, requesting a
// fresh one when it is within a minute of expiring.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	var token tokenResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     c.cfg.ClientId,
			"client_secret": c.cfg.ClientSecret,
		}).
		SetResult(&token).
		Post(c.cfg.OAuthTokenUrl)
	if err != nil {
		c.token = ""
		return "", fmt.Errorf("request access token: %w", err)
	}
	if res.IsError() {
		c.token = ""
		return "", fmt.Errorf("request access token: status %d: %s", res.StatusCode(), res.String())
	}
	if token.AccessToken == "" {
		c.token = ""
		return "", fmt.Errorf("request access token: empty token in response")
	}

	c.token = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return c.token, nil
}

func (c *Client) authorized(ctx context.Context) (*resty.Request, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("x-api-key", c.cfg.ApiKey).
		SetHeader("Accept", "application/json"), nil
}

type indicatorDefinition struct {
	Characteristics struct {
		CharacteristicsName string `json:"characteristicsName"`
	} `json:"characteristics"`
	CharacteristicsInternalId string `json:"characteristics_characteristicsInternalId"`
	PositionDetails           struct {
		ID string `json:"ID"`
	} `json:"positionDetails"`
	Category struct {
		Name string `json:"name"`
	} `json:"category"`
}

// InitIndicators fetches the indicator definitions of the configured
// technical object once and builds the characteristic-id to feature-name
// map from featureNames (characteristic name -> model feature name).
// Finding no indicators at all is an error since polling would be
// pointless.
func (c *Client) InitIndicators(ctx context.Context, featureNames map[string]string) error {
	ctx, span := tracer.Start(ctx, "InitIndicators")
	defer span.End()

	req, err := c.authorized(ctx)
	if err != nil {
		return err
	}

	filter := fmt.Sprintf(
		"technicalObject_number eq '%s' and technicalObject_SSID eq '%s' and technicalObject_type eq '%s'",
		c.cfg.Equipment.Number, c.cfg.Equipment.SSID, c.cfg.Equipment.Type,
	)
	var body struct {
		Value []indicatorDefinition `json:"value"`
	}
	res, err := req.
		SetQueryParam("$filter", filter).
		SetQueryParam("$expand", "characteristics($select=characteristicsName),category,positionDetails").
		SetResult(&body).
		Get(c.cfg.IndicatorEndpoint)
	if err != nil {
		return fmt.Errorf("fetch indicator definitions: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("fetch indicator definitions: status %d: %s", res.StatusCode(), res.String())
	}
	if len(body.Value) == 0 {
		return fmt.Errorf("no indicators found for technical object '%s'", c.cfg.Equipment.Number)
	}

	c.charToFeature = map[string]string{}
	for _, item := range body.Value {
		feature, ok := featureNames[item.Characteristics.CharacteristicsName]
		if !ok {
			continue
		}
		c.charToFeature[item.CharacteristicsInternalId] = feature
	}
	c.positionId = body.Value[0].PositionDetails.ID
	c.categoryName = body.Value[0].Category.Name

	if len(c.charToFeature) == 0 {
		return fmt.Errorf("none of the %d indicators match a configured feature", len(body.Value))
	}
	return nil
}

// Point is one mapped measurement of one model feature.
type Point struct {
	Time    time.Time
	Feature string
	Value   float64
}

type measurementValue struct {
	CharacteristicsInternalId string          `json:"characteristicsInternalId"`
	Time                      string          `json:"time"`
	Value                     json.RawMessage `json:"value"`
}

func coerceFloat(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

// FetchMeasurements reads every measurement between `from` and now,
// mapped through the characteristic map built by InitIndicators. The
// returned time is the newest measurement timestamp seen, or `from`
// when there are none; callers use it as the next poll cursor.
func (c *Client) FetchMeasurements(ctx context.Context, from time.Time) ([]Point, time.Time, error) {
	ctx, span := tracer.Start(ctx, "FetchMeasurements")
	defer span.End()

	if len(c.charToFeature) == 0 {
		return nil, from, fmt.Errorf("indicator map is empty, call InitIndicators first")
	}

	req, err := c.authorized(ctx)
	if err != nil {
		return nil, from, err
	}

	to := time.Now().UTC()
	odataKey := fmt.Sprintf(
		"(SSID='%s',technicalObjectType='%s',technicalObjectNumber='%s',categoryName='%s',positionID='%s',fromTime=%s,toTime=%s)",
		c.cfg.Equipment.SSID,
		c.cfg.Equipment.Type,
		c.cfg.Equipment.Number,
		c.categoryName,
		c.positionId,
		url.QueryEscape(from.UTC().Format("2006-01-02T15:04:05Z")),
		url.QueryEscape(to.Format("2006-01-02T15:04:05Z")),
	)

	var body struct {
		Values []measurementValue `json:"values"`
	}
	res, err := req.SetResult(&body).Get(c.cfg.TimeseriesEndpoint + odataKey)
	if err != nil {
		return nil, from, fmt.Errorf("fetch measurements: %w", err)
	}
	if res.IsError() {
		return nil, from, fmt.Errorf("fetch measurements: status %d: %s", res.StatusCode(), res.String())
	}

	newest := from
	var points []Point
	for _, v := range body.Values {
		ts, err := time.Parse(time.RFC3339, v.Time)
		if err != nil {
			continue
		}
		if ts.After(newest) {
			newest = ts
		}
		feature, ok := c.charToFeature[v.CharacteristicsInternalId]
		if !ok {
			continue
		}
		value, ok := coerceFloat(v.Value)
		if !ok {
			continue
		}
		points = append(points, Point{Time: ts, Feature: feature, Value: value})
	}
	return points, newest, nil
}

// CheckConnectivity verifies that both the token endpoint and the
// indicator endpoint answer, without touching any client state.
func (c *Client) CheckConnectivity(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "CheckConnectivity")
	defer span.End()

	req, err := c.authorized(ctx)
	if err != nil {
		return err
	}
	res, err := req.SetQueryParam("$top", "1").Get(c.cfg.IndicatorEndpoint)
	if err != nil {
		return fmt.Errorf("probe indicator endpoint: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("probe indicator endpoint: status %d", res.StatusCode())
	}
	return nil
}

// CreateAlert files a failure-risk alert for the configured technical
// object.
func (c *Client) CreateAlert(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "CreateAlert")
	defer span.End()

	req, err := c.authorized(ctx)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"AlertType":   c.cfg.AlertType,
		"TriggeredOn": time.Now().UTC().Format(time.RFC3339),
		"TechnicalObject": []map[string]string{{
			"Number": c.cfg.Equipment.Number,
			"SSID":   c.cfg.Equipment.SSID,
			"Type":   c.cfg.Equipment.Type,
		}},
		"Source": "pdm-backend/monitor",
	}
	res, err := req.SetBody(payload).Post(c.cfg.AlertEndpoint)
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("create alert: status %d: %s", res.StatusCode(), res.String())
	}
	return nil
}
