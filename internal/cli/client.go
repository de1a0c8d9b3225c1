package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shaiso/Tabula/internal/spreadsheet"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// SheetSummary — таблица в списке.
type SheetSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Cells     int    `json:"cells"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CellResponse — ячейка из API.
type CellResponse struct {
	Cell        string `json:"cell"`
	Contents    string `json:"contents"`
	ContentKind string `json:"content_kind"`
	Value       string `json:"value"`
	ValueKind   string `json:"value_kind"`
	Error       string `json:"error,omitempty"`
}

// SheetResponse — открытая таблица из API.
type SheetResponse struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Changed bool           `json:"changed"`
	Cells   []CellResponse `json:"cells"`
}

// SetCellResponse — результат правки ячейки.
type SetCellResponse struct {
	Cell         string         `json:"cell"`
	Recalculated []CellResponse `json:"recalculated"`
}

// SaveSheetResponse — результат сохранения.
type SaveSheetResponse struct {
	ID        string `json:"id"`
	Cells     int    `json:"cells"`
	UpdatedAt string `json:"updated_at"`
}

// --- Request types ---

// CreateSheetRequest — создание таблицы.
type CreateSheetRequest struct {
	Name  string            `json:"name,omitempty"`
	Cells map[string]string `json:"cells,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для Tabula API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListSheets возвращает сохранённые таблицы.
func (c *Client) ListSheets() ([]SheetSummary, error) {
	var sheets []SheetSummary
	err := c.list("/api/v1/sheets", &sheets)
	return sheets, err
}

// CreateSheet создаёт таблицу с начальным содержимым.
func (c *Client) CreateSheet(req CreateSheetRequest) (*SheetResponse, error) {
	var sheet SheetResponse
	err := c.doData(http.MethodPost, "/api/v1/sheets", req, &sheet)
	return &sheet, err
}

// GetSheet возвращает таблицу со всеми непустыми ячейками.
func (c *Client) GetSheet(id string) (*SheetResponse, error) {
	var sheet SheetResponse
	err := c.doData(http.MethodGet, sheetPath(id), nil, &sheet)
	return &sheet, err
}

// GetDocument возвращает содержимое таблицы в формате файла.
func (c *Client) GetDocument(id string) (spreadsheet.Document, error) {
	var doc spreadsheet.Document
	err := c.doData(http.MethodGet, sheetPath(id)+"/document", nil, &doc)
	return doc, err
}

// GetCell возвращает ячейку.
func (c *Client) GetCell(id, cell string) (*CellResponse, error) {
	var resp CellResponse
	err := c.doData(http.MethodGet, cellPath(id, cell), nil, &resp)
	return &resp, err
}

// SetCell изменяет ячейку.
func (c *Client) SetCell(id, cell, input string) (*SetCellResponse, error) {
	var resp SetCellResponse
	body := map[string]string{"input": input}
	err := c.doData(http.MethodPut, cellPath(id, cell), body, &resp)
	return &resp, err
}

// SaveSheet записывает таблицу в БД.
func (c *Client) SaveSheet(id string) (*SaveSheetResponse, error) {
	var resp SaveSheetResponse
	err := c.doData(http.MethodPost, sheetPath(id)+"/save", nil, &resp)
	return &resp, err
}

// DeleteSheet удаляет таблицу.
func (c *Client) DeleteSheet(id string) error {
	return c.doData(http.MethodDelete, sheetPath(id), nil, nil)
}

func sheetPath(id string) string {
	return "/api/v1/sheets/" + url.PathEscape(id)
}

func cellPath(id, cell string) string {
	return sheetPath(id) + "/cells/" + url.PathEscape(cell)
}

// --- HTTP helpers ---

func (c *Client) list(path string, result any) error {
	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(dr.Data, result)
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// checkError превращает ответ 4xx/5xx в *APIError.
func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
