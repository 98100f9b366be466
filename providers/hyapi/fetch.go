// Package hyapi bindet die institutionelle Hochschul-API als Quelle für
// Lehrpersonen und Forschungsergebnisse an.
package hyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"aacsb-sync/config"
	"aacsb-sync/models"
	"aacsb-sync/providers"
)

// credentialTransport setzt die Zugangsdaten der API auf jede Anfrage.
type credentialTransport struct {
	ClientID  string
	SwapKey   string
	Transport http.RoundTripper
}

func (t *credentialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", "application/json")
	if t.ClientID != "" {
		req.Header.Set("client_id", t.ClientID)
	}
	if t.SwapKey != "" {
		req.Header.Set("swap_key", t.SwapKey)
	}
	return t.Transport.RoundTrip(req)
}

// Client implementiert FacultyProvider und ResearchProvider für die Hochschul-API.
type Client struct {
	Config   *config.Config
	Logger   *zap.Logger
	HTTP     *http.Client
	Location *time.Location
}

var (
	_ providers.FacultyProvider  = (*Client)(nil)
	_ providers.ResearchProvider = (*Client)(nil)
)

// NewClient erstellt einen API-Client; Zeitstempel werden in loc interpretiert.
func NewClient(cfg *config.Config, logger *zap.Logger, loc *time.Location) *Client {
	return &Client{
		Config: cfg,
		Logger: logger.With(zap.String("provider", "hyapi")),
		HTTP: &http.Client{
			Timeout: cfg.APITimeout,
			Transport: &credentialTransport{
				ClientID:  cfg.APIClientID,
				SwapKey:   cfg.APISwapKey,
				Transport: http.DefaultTransport,
			},
		},
		Location: loc,
	}
}

// Name gibt den Namen des Providers zurück.
func (c *Client) Name() string {
	return "hyapi"
}

// Origin gibt die Herkunftskennung für API-Datensätze zurück.
func (c *Client) Origin() models.DataSource {
	return models.SourceAPI
}

// FetchFaculty lädt alle Lehrpersonen.
func (c *Client) FetchFaculty(ctx context.Context) ([]providers.FacultyItem, error) {
	if c.Config.FacultyRemoteToken == "" {
		return nil, errors.New("FACULTY_REMOTE_TOKEN is not set")
	}
	var env Envelope[FacultyData]
	params := url.Values{"in_user_id": {"%"}}
	if err := c.get(ctx, c.Config.FacultyAPIURL, c.Config.FacultyRemoteToken, params, &env); err != nil {
		return nil, fmt.Errorf("faculty api: %w", err)
	}

	c.Logger.Info("Lehrpersonen von der API geladen",
		zap.String("total_count", env.Response.TotalCount.String()),
		zap.Int("received", len(env.Response.List)))

	items := make([]providers.FacultyItem, 0, len(env.Response.List))
	for _, d := range env.Response.List {
		items = append(items, facultyItem{data: d, loc: c.Location})
	}
	return items, nil
}

// FetchResearch lädt alle Forschungsergebnisse aller Jahre.
func (c *Client) FetchResearch(ctx context.Context) ([]providers.ResearchItem, error) {
	if c.Config.ResearchRemoteToken == "" {
		return nil, errors.New("RESEARCH_REMOTE_TOKEN is not set")
	}
	var env Envelope[ResearchData]
	params := url.Values{"in_user_id": {"%"}, "in_published_year": {"%"}}
	if err := c.get(ctx, c.Config.ResearchAPIURL, c.Config.ResearchRemoteToken, params, &env); err != nil {
		return nil, fmt.Errorf("research api: %w", err)
	}

	c.Logger.Info("Forschungsergebnisse von der API geladen",
		zap.String("total_count", env.Response.TotalCount.String()),
		zap.Int("received", len(env.Response.List)))

	items := make([]providers.ResearchItem, 0, len(env.Response.List))
	for _, d := range env.Response.List {
		items = append(items, researchItem{data: d, loc: c.Location})
	}
	return items, nil
}

func (c *Client) get(ctx context.Context, endpoint, token string, params url.Values, out interface{}) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("remote_token", token)

	c.Logger.Debug("Rufe Hochschul-API auf", zap.String("url", u.String()))
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
