package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

// Upload is a file to send to the Fee API.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// UploadDocument sends file with the given title as a multipart form and
// returns the created document record.
func (c *Client) UploadDocument(ctx context.Context, file Upload, title string) (*Document, error) {
	const op = "upload document"
	const fallback = "Failed to upload document"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Filename))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, c.failure(op, 0, nil, err, fallback)
	}
	if file.Content != nil {
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, c.failure(op, 0, nil, fmt.Errorf("reading upload: %w", err), fallback)
		}
	}
	if err := mw.WriteField("title", title); err != nil {
		return nil, c.failure(op, 0, nil, err, fallback)
	}
	if err := mw.Close(); err != nil {
		return nil, c.failure(op, 0, nil, err, fallback)
	}

	resp, err := c.do(ctx, http.MethodPost, "/documents/", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, c.failure(op, 0, nil, err, fallback)
	}
	if !resp.ok() {
		return nil, c.statusFailure(op, resp, fallback)
	}

	var doc Document
	if err := json.Unmarshal(resp.body, &doc); err != nil {
		return nil, c.failure(op, resp.status, nil, fmt.Errorf("decoding document: %w", err), fallback)
	}
	return &doc, nil
}

// AnalyzeDocument triggers analysis of a document and returns the
// unwrapped fee_perspective_analysis payload. A response without that
// payload fails with ErrInvalidAnalysis.
func (c *Client) AnalyzeDocument(ctx context.Context, documentID ID) (*Analysis, error) {
	const op = "analyze document"
	const fallback = "Failed to analyze document"

	resp, err := c.do(ctx, http.MethodPost, "/documents/"+url.PathEscape(documentID.String())+"/analyze/", nil, "")
	if err != nil {
		return nil, c.failure(op, 0, nil, err, fallback)
	}
	if !resp.ok() {
		return nil, c.statusFailure(op, resp, fallback)
	}

	var envelope struct {
		FeePerspectiveAnalysis *Analysis `json:"fee_perspective_analysis"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err != nil || envelope.FeePerspectiveAnalysis == nil {
		return nil, c.failure(op, resp.status, nil, ErrInvalidAnalysis, ErrInvalidAnalysis.Error())
	}
	return envelope.FeePerspectiveAnalysis, nil
}

// GetDocuments lists uploaded documents. Both a bare array and a
// paginated {"results": [...]} body are accepted; a 404 means the user
// has no documents yet and yields an empty list.
func (c *Client) GetDocuments(ctx context.Context) ([]Document, error) {
	const op = "get documents"
	const fallback = "Failed to load documents"

	resp, err := c.do(ctx, http.MethodGet, "/documents/", nil, "")
	if err != nil {
		return nil, c.failure(op, 0, nil, err, fallback)
	}
	if resp.status == http.StatusNotFound {
		return []Document{}, nil
	}
	if !resp.ok() {
		return nil, c.statusFailure(op, resp, fallback)
	}

	docs, err := decodeList[Document](resp.body)
	if err != nil {
		return nil, c.failure(op, resp.status, nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err), ErrInvalidResponse.Error())
	}
	return docs, nil
}

// GetAnalysis fetches a stored analysis record by id.
func (c *Client) GetAnalysis(ctx context.Context, analysisID ID) (*AnalysisRecord, error) {
	const op = "get analysis"
	const fallback = "Failed to load analysis"

	resp, err := c.do(ctx, http.MethodGet, "/analyses/"+url.PathEscape(analysisID.String())+"/", nil, "")
	if err != nil {
		return nil, c.failure(op, 0, nil, err, fallback)
	}
	if !resp.ok() {
		return nil, c.statusFailure(op, resp, fallback)
	}

	var rec AnalysisRecord
	if err := json.Unmarshal(resp.body, &rec); err != nil {
		return nil, c.failure(op, resp.status, nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err), fallback)
	}
	return &rec, nil
}

// UploadDocumentInChat uploads a file titled after its name and analyzes
// it. The first failing step's error is returned.
func (c *Client) UploadDocumentInChat(ctx context.Context, file Upload) (*Document, *Analysis, error) {
	doc, err := c.UploadDocument(ctx, file, TitleFromFilename(file.Filename))
	if err != nil {
		return nil, nil, err
	}
	analysis, err := c.AnalyzeDocument(ctx, doc.ID)
	if err != nil {
		return doc, nil, err
	}
	return doc, analysis, nil
}

// decodeList accepts either a JSON array or an object carrying the array
// under "results". null decodes to an empty list.
func decodeList[T any](body []byte) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []T{}, nil
	}

	switch body[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	case '{':
		var page struct {
			Results *[]T `json:"results"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		if page.Results == nil {
			return nil, fmt.Errorf("object has no results array")
		}
		items := *page.Results
		if items == nil {
			items = []T{}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unexpected JSON value")
	}
}
