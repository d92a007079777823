// Package tables provides a client for the Google Tables (area120) API.
// - https://developers.google.com/tables/reference/rest
package tables

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/navikt/nada-tablesync/pkg/errs"
)

const (
	DefaultAPIURL     = "https://area120tables.googleapis.com/v1alpha1"
	DefaultDisplayURL = "https://tables.area120.google.com/table"

	// Scope needed by the OAuth2 token used for the API.
	Scope = "https://www.googleapis.com/auth/tables"

	PageSize     = 100
	ColumnIDView = "COLUMN_ID_VIEW"
)

var _ Operations = &Client{}

type Operations interface {
	ListTables(ctx context.Context) ([]*Table, error)
	GetTable(ctx context.Context, name string) (*Table, error)
	ListRows(ctx context.Context, name, pageToken string) (*RowsPage, error)
	UpdateRow(ctx context.Context, row *Row) (*Row, error)
	TableURL(name string) string
	DisplayURL(name string) string
}

// StatusCodeError is returned when the API responds with a non 2xx status
// and no structured error message.
type StatusCodeError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusCodeError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

type apiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type Client struct {
	client     *http.Client
	apiURL     string
	displayURL string
}

func (c *Client) TableURL(name string) string {
	return c.apiURL + "/" + strings.TrimPrefix(name, "/")
}

func (c *Client) DisplayURL(name string) string {
	parts := strings.Split(name, "/")

	return c.displayURL + "/" + parts[len(parts)-1]
}

func (c *Client) ListTables(ctx context.Context) ([]*Table, error) {
	const op errs.Op = "tables.Client.ListTables"

	var tables []*Table

	pageToken := ""

	for {
		query := url.Values{}
		query.Set("pageSize", fmt.Sprint(PageSize))

		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		page := &tablesPage{}

		err := c.sendRequestAndDeserialize(ctx, http.MethodGet, c.apiURL+"/tables?"+query.Encode(), nil, page)
		if err != nil {
			return nil, errs.E(op, err)
		}

		tables = append(tables, page.Tables...)

		if page.NextPageToken == "" {
			break
		}

		pageToken = page.NextPageToken
	}

	return tables, nil
}

func (c *Client) GetTable(ctx context.Context, name string) (*Table, error) {
	const op errs.Op = "tables.Client.GetTable"

	table := &Table{}

	err := c.sendRequestAndDeserialize(ctx, http.MethodGet, c.TableURL(name), nil, table)
	if err != nil {
		return nil, errs.E(op, errs.Parameter("name"), err)
	}

	err = table.Validate()
	if err != nil {
		return nil, errs.E(errs.Invalid, op, err)
	}

	return table, nil
}

func (c *Client) ListRows(ctx context.Context, name, pageToken string) (*RowsPage, error) {
	const op errs.Op = "tables.Client.ListRows"

	query := url.Values{}
	query.Set("view", ColumnIDView)
	query.Set("pageSize", fmt.Sprint(PageSize))

	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	page := &RowsPage{}

	err := c.sendRequestAndDeserialize(ctx, http.MethodGet, c.TableURL(name)+"/rows?"+query.Encode(), nil, page)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return page, nil
}

func (c *Client) UpdateRow(ctx context.Context, row *Row) (*Row, error) {
	const op errs.Op = "tables.Client.UpdateRow"

	query := url.Values{}
	query.Set("view", ColumnIDView)

	updated := &Row{}

	err := c.sendRequestAndDeserialize(ctx, http.MethodPatch, c.TableURL(row.Name)+"?"+query.Encode(), row, updated)
	if err != nil {
		return nil, errs.E(op, errs.Parameter(row.Name), err)
	}

	return updated, nil
}

func (c *Client) sendRequestAndDeserialize(ctx context.Context, method, url string, body, into any) error {
	const op errs.Op = "tables.Client.sendRequestAndDeserialize"

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errs.E(errs.Internal, op, fmt.Errorf("marshalling body: %w", err))
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errs.E(errs.Internal, op, fmt.Errorf("creating request: %w", err))
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return errs.E(errs.IO, op, fmt.Errorf("sending request: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return errorFromResponse(op, res)
	}

	err = json.NewDecoder(res.Body).Decode(into)
	if err != nil {
		return errs.E(errs.IO, op, fmt.Errorf("decoding response: %w", err))
	}

	return nil
}

// errorFromResponse never rewrites a 401, callers rely on it to refresh
// credentials.
func errorFromResponse(op errs.Op, res *http.Response) error {
	data, _ := io.ReadAll(res.Body)

	statusErr := &StatusCodeError{
		StatusCode: res.StatusCode,
		Body:       data,
	}

	switch res.StatusCode {
	case http.StatusUnauthorized:
		return errs.E(errs.Unauthenticated, op, statusErr)
	case http.StatusForbidden:
		return errs.E(errs.Unauthorized, op, statusErr)
	}

	apiErr := &apiError{}
	if err := json.Unmarshal(data, apiErr); err == nil && apiErr.Error != nil && apiErr.Error.Message != "" {
		kind := errs.InvalidRequest
		if res.StatusCode == http.StatusNotFound {
			kind = errs.NotExist
		}

		return errs.E(kind, op, errs.Str(apiErr.Error.Message))
	}

	if res.StatusCode == http.StatusNotFound {
		return errs.E(errs.NotExist, op, statusErr)
	}

	return errs.E(errs.IO, op, statusErr)
}

func New(apiURL, displayURL string, client *http.Client) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	if displayURL == "" {
		displayURL = DefaultDisplayURL
	}

	return &Client{
		client:     client,
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		displayURL: strings.TrimSuffix(displayURL, "/"),
	}
}
