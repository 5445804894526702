package docling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// Client talks to a docling-serve backend over HTTP. It implements Engine.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a client for the docling-serve instance at baseURL.
// apiKey may be empty when the backend requires no auth. No timeout is set
// on the underlying HTTP client; callers bound requests through ctx.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{baseURL: baseURL, apiKey: apiKey, http: &http.Client{}}
}

// Ping probes GET {base}/health.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	c.auth(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("docling backend: status %s", resp.Status)
	}
	return nil
}

type convertResponse struct {
	Document struct {
		MDContent   string          `json:"md_content"`
		JSONContent json.RawMessage `json:"json_content"`
	} `json:"document"`
	Status string   `json:"status"`
	Errors []string `json:"errors"`
}

// jsonContent is the subset of the DoclingDocument JSON export the client
// reads: document identity, page map, picture provenance, and text items
// carrying hyperlinks.
type jsonContent struct {
	Name  string                     `json:"name"`
	Pages map[string]json.RawMessage `json:"pages"`
	Pictures []struct {
		Prov []struct {
			PageNo int `json:"page_no"`
			BBox   struct {
				L float64 `json:"l"`
				T float64 `json:"t"`
				R float64 `json:"r"`
				B float64 `json:"b"`
			} `json:"bbox"`
		} `json:"prov"`
	} `json:"pictures"`
	Texts []struct {
		Text      string `json:"text"`
		Hyperlink string `json:"hyperlink"`
		Prov      []struct {
			PageNo int `json:"page_no"`
		} `json:"prov"`
	} `json:"texts"`
}

// decodeJSONContent fills the document's structural attributes from the
// engine's JSON export. The export is best-effort: a malformed payload
// leaves the markdown-only document intact.
func decodeJSONContent(doc *Document, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var jc jsonContent
	if err := json.Unmarshal(raw, &jc); err != nil {
		return
	}
	if jc.Name != "" {
		name := jc.Name
		doc.Metadata = &DocumentMetadata{Title: &name}
	}
	doc.Pages = len(jc.Pages)
	for _, pic := range jc.Pictures {
		ref := ImageRef{}
		if len(pic.Prov) > 0 {
			prov := pic.Prov[0]
			page := prov.PageNo
			ref.PageNumber = &page
			w := int(prov.BBox.R - prov.BBox.L)
			h := int(prov.BBox.T - prov.BBox.B)
			if w > 0 {
				ref.Width = &w
			}
			if h > 0 {
				ref.Height = &h
			}
			ref.Position = map[string]float64{
				"l": prov.BBox.L, "t": prov.BBox.T,
				"r": prov.BBox.R, "b": prov.BBox.B,
			}
		}
		doc.Images = append(doc.Images, ref)
	}
	for _, txt := range jc.Texts {
		if txt.Hyperlink == "" {
			continue
		}
		ref := LinkRef{Text: txt.Text, URL: txt.Hyperlink}
		if len(txt.Prov) > 0 {
			page := txt.Prov[0].PageNo
			ref.PageNumber = &page
		}
		doc.Links = append(doc.Links, ref)
	}
}

// Convert uploads the file at path to POST {base}/v1alpha/convert/file and
// decodes the response into a Document.
func (c *Client) Convert(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	// Request both renderings: markdown for the content, the JSON export
	// for metadata, page count, pictures and hyperlinks.
	for _, format := range []string{"md", "json"} {
		if err := mw.WriteField("to_formats", format); err != nil {
			return nil, err
		}
	}
	part, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1alpha/convert/file", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("docling backend: status %s: %s", resp.Status, bytes.TrimSpace(b))
	}

	var payload convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("docling backend: decode response: %w", err)
	}
	if payload.Status == "failure" {
		return nil, fmt.Errorf("docling backend: conversion failed: %v", payload.Errors)
	}
	doc := &Document{Markdown: payload.Document.MDContent}
	decodeJSONContent(doc, payload.Document.JSONContent)
	return doc, nil
}

func (c *Client) auth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
