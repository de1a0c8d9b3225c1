package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/mq"
)

// fakeAPI отвечает заранее заданными телами и запоминает запросы.
type fakeAPI struct {
	t        *testing.T
	lastPath string
	lastBody map[string]string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lastPath = r.Method + " " + r.URL.Path
	f.lastBody = nil
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		if err := json.Unmarshal(data, &f.lastBody); err != nil {
			f.t.Errorf("request body is not a string map: %s", data)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	switch f.lastPath {
	case "PUT /api/v1/sheets/s1/cells/A1":
		io.WriteString(w, `{"data": {"cell": "A1", "recalculated": [
			{"cell": "A1", "contents": "5", "value": "5"},
			{"cell": "B1", "contents": "=A1+2", "value": "7"}]}}`)
	case "GET /api/v1/sheets":
		io.WriteString(w, `{"data": [{"id": "s1", "name": "one", "cells": 2}], "total": 1}`)
	case "GET /api/v1/sheets/s1/document":
		io.WriteString(w, `{"data": {"Cells": {"A1": {"StringForm": "5"}}}}`)
	case "DELETE /api/v1/sheets/s1":
		w.WriteHeader(http.StatusNoContent)
	case "PUT /api/v1/sheets/s1/cells/B1":
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"error": {"code": "CIRCULAR_REFERENCE", "message": "circular reference"}}`)
	default:
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream is down")
	}
}

func newFakeClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{t: t}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL), api
}

func TestClient_SetCell(t *testing.T) {
	client, api := newFakeClient(t)

	resp, err := client.SetCell("s1", "A1", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.lastBody["input"] != "5" {
		t.Errorf("expected input 5 in request, got %v", api.lastBody)
	}
	if len(resp.Recalculated) != 2 || resp.Recalculated[1].Value != "7" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestClient_Errors(t *testing.T) {
	client, _ := newFakeClient(t)

	_, err := client.SetCell("s1", "B1", "=A1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Code != "CIRCULAR_REFERENCE" {
		t.Errorf("unexpected error: %+v", apiErr)
	}

	// Тело ошибки не JSON
	_, err = client.GetSheet("unknown")
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Code != "" {
		t.Errorf("expected bare HTTP error, got %v", err)
	}
}

func TestClient_ListDeleteDocument(t *testing.T) {
	client, _ := newFakeClient(t)

	sheets, err := client.ListSheets()
	if err != nil || len(sheets) != 1 || sheets[0].Cells != 2 {
		t.Errorf("unexpected list: %+v, %v", sheets, err)
	}

	if err := client.DeleteSheet("s1"); err != nil {
		t.Errorf("delete: %v", err)
	}

	doc, err := client.GetDocument("s1")
	if err != nil || doc.Cells["A1"].StringForm != "5" {
		t.Errorf("unexpected document: %+v, %v", doc, err)
	}
}

func TestFormatEvent(t *testing.T) {
	sheetID := uuid.New()
	ts := time.Date(2024, 1, 2, 10, 11, 12, 0, time.UTC)

	changed := mq.NewMessage(mq.MessageTypeCellsChanged, mq.CellsChangedPayload{
		SheetID:      sheetID,
		Cell:         "A1",
		Content:      "10",
		Recalculated: []mq.CellValue{{Cell: "A1", Value: "10"}, {Cell: "B1", Value: "12"}},
	})
	changed.Timestamp = ts

	line, id, err := formatEvent(changed)
	if err != nil {
		t.Fatal(err)
	}
	expected := "10:11:12 " + sheetID.String() + ` A1 := "10" -> A1=10 B1=12`
	if line != expected || id != sheetID.String() {
		t.Errorf("unexpected line %q (sheet %s)", line, id)
	}

	deleted := mq.NewMessage(mq.MessageTypeSheetDeleted, mq.SheetDeletedPayload{SheetID: sheetID})
	deleted.Timestamp = ts
	if line, _, _ := formatEvent(deleted); line != "10:11:12 "+sheetID.String()+" deleted" {
		t.Errorf("unexpected line %q", line)
	}
}

func TestPrintEvent_Filter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	out := NewOutputTo(false, &stdout, &stderr)

	msg := mq.NewMessage(mq.MessageTypeSheetSaved, mq.SheetSavedPayload{SheetID: uuid.New(), Cells: 3})

	if err := printEvent(out, msg, uuid.NewString()); err != nil {
		t.Fatal(err)
	}
	if stdout.Len() != 0 {
		t.Errorf("filtered event printed: %q", stdout.String())
	}

	if err := printEvent(out, msg, ""); err != nil {
		t.Fatal(err)
	}
	if stdout.Len() == 0 {
		t.Error("expected event to be printed")
	}
}
