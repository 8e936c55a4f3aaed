package simpro

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"worksync/internal"
	"worksync/internal/config"
)

// Client talks to the simPRO REST API. Reads (company lookup, contact
// listing) are retried a bounded number of times; writes are single-shot
// so a failed row never produces duplicate entities.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
	tokens     oauth2.TokenSource

	companyID int
}

func NewClient(cfg config.Config) (*Client, error) {
	if err := cfg.Require("SIMPRO_CLIENT_ID", cfg.SimproClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("SIMPRO_CLIENT_SECRET", cfg.SimproClientSecret); err != nil {
		return nil, err
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.SimproClientID,
		ClientSecret: cfg.SimproClientSecret,
		TokenURL:     strings.TrimRight(cfg.SimproTokenDomain, "/") + "/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.SimproTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.SimproRateLimitRPS),
		tokens:     creds.TokenSource(context.Background()),
	}, nil
}

type idEnvelope struct {
	ID int `json:"ID"`
}

// CompanyID resolves the tenant company on first use and caches it for
// the rest of the run.
func (c *Client) CompanyID(ctx context.Context) (int, error) {
	if c.companyID != 0 {
		return c.companyID, nil
	}

	body, err := c.getJSON(ctx, "/api/v1.0/companies")
	if err != nil {
		return 0, err
	}

	var companies []idEnvelope
	if err := json.Unmarshal(body, &companies); err != nil {
		return 0, fmt.Errorf("decode companies response: %w", err)
	}
	if len(companies) == 0 {
		return 0, errors.New("no companies returned")
	}

	c.companyID = companies[0].ID
	return c.companyID, nil
}

// ListAllContacts pages through the company contact list until an empty
// page is returned.
func (c *Client) ListAllContacts(ctx context.Context) ([]internal.Contact, error) {
	companyID, err := c.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	all := make([]internal.Contact, 0)
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("/api/v1.0/companies/%d/contacts/?page=%d&pageSize=100", companyID, page)
		body, err := c.getJSON(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		var contacts []internal.Contact
		if err := json.Unmarshal(body, &contacts); err != nil {
			return nil, fmt.Errorf("decode contacts page %d: %w", page, err)
		}
		if len(contacts) == 0 {
			break
		}
		all = append(all, contacts...)
	}

	return all, nil
}

func (c *Client) CreateContact(ctx context.Context, first, last, mobile string) (internal.Contact, error) {
	companyID, err := c.CompanyID(ctx)
	if err != nil {
		return internal.Contact{}, err
	}

	payload := map[string]any{
		"GivenName":  first,
		"FamilyName": last,
	}
	if strings.TrimSpace(mobile) != "" {
		payload["CellPhone"] = mobile
	}

	var created idEnvelope
	endpoint := fmt.Sprintf("/api/v1.0/companies/%d/contacts/", companyID)
	if err := c.postJSON(ctx, endpoint, payload, &created); err != nil {
		return internal.Contact{}, err
	}
	if created.ID == 0 {
		return internal.Contact{}, errors.New("contact created without an ID")
	}

	return internal.Contact{ID: created.ID, GivenName: first, FamilyName: last, CellPhone: mobile}, nil
}

func (c *Client) CreateSite(ctx context.Context, name, address, city, postcode string, contactID int) (int, error) {
	companyID, err := c.CompanyID(ctx)
	if err != nil {
		return 0, err
	}

	payload := map[string]any{
		"Name": name,
		"Address": map[string]any{
			"Address":    address,
			"City":       city,
			"PostalCode": postcode,
			"Country":    "United Kingdom",
		},
		"PrimaryContact": contactID,
	}

	var created idEnvelope
	endpoint := fmt.Sprintf("/api/v1.0/companies/%d/sites/", companyID)
	if err := c.postJSON(ctx, endpoint, payload, &created); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, errors.New("site created without an ID")
	}
	return created.ID, nil
}

// CreateJob books a job against a site. visit is the number of jobs
// already created for this contact during the run; repeat visits are
// flagged in the job notes so schedulers can spot same-day clusters.
func (c *Client) CreateJob(ctx context.Context, siteID, contactID int, name string, date time.Time, notes string, visit int) (int, error) {
	companyID, err := c.CompanyID(ctx)
	if err != nil {
		return 0, err
	}

	description := notes
	if visit > 0 {
		tag := fmt.Sprintf("VISIT %d", visit+1)
		if description == "" {
			description = tag
		} else {
			description = description + " | " + tag
		}
	}

	payload := map[string]any{
		"Type":        "Service",
		"Name":        name,
		"Site":        siteID,
		"Customer":    contactID,
		"DateIssued":  date.Format("2006-01-02"),
		"Description": description,
	}

	var created idEnvelope
	endpoint := fmt.Sprintf("/api/v1.0/companies/%d/jobs/", companyID)
	if err := c.postJSON(ctx, endpoint, payload, &created); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, errors.New("job created without an ID")
	}
	return created.ID, nil
}

func (c *Client) AddJobCharge(ctx context.Context, jobID int, description string, total float64) error {
	companyID, err := c.CompanyID(ctx)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"Description": description,
		"Total":       total,
	}

	endpoint := fmt.Sprintf("/api/v1.0/companies/%d/jobs/%d/charges/", companyID, jobID)
	return c.postJSON(ctx, endpoint, payload, nil)
}

// Ping hits the API base URL without auth and reports the status code.
func (c *Client) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.SimproAPIBase, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string) ([]byte, error) {
	attempts := c.cfg.ReadRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := time.Duration(c.cfg.ReadRetryDelayMs) * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.doJSON(ctx, http.MethodGet, endpoint, nil)
		if err == nil {
			return body, nil
		}
		lastErr = err
		fmt.Printf("attempt %d/%d failed: %v\n", attempt, attempts, err)
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	blob, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	body, err := c.doJSON(ctx, http.MethodPost, endpoint, blob)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	c.limiter.WaitTurn()

	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("acquire access token: %w", err)
	}

	url := strings.TrimRight(c.cfg.SimproAPIBase, "/") + endpoint
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("simpro api error: %s %s status=%d body=%s", method, endpoint, resp.StatusCode, truncate(body, 300))
	}

	return body, nil
}

func truncate(body []byte, limit int) string {
	s := string(body)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
