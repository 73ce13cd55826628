// internal/intake/verification/ocr_client.go
package verification

import (
	"bytes"
	"context"
	"fmt"
	"time"

	commonhttp "loan-intake/internal/common/http"
)

// OCRClient posts the raw document to an OCR endpoint that answers with the
// recognised text, then reads the income from that text.
type OCRClient struct {
	client *commonhttp.Client
	url    string
}

func NewOCRClient(url string, timeout time.Duration) *OCRClient {
	return &OCRClient{client: commonhttp.NewClient(timeout), url: url}
}

type ocrResponse struct {
	Text string `json:"text"`
}

func (c *OCRClient) ExtractIncome(ctx context.Context, doc Document) (int, error) {
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var resp ocrResponse
	if err := c.client.Post(ctx, c.url, contentType, bytes.NewReader(doc.Content), &resp); err != nil {
		return 0, fmt.Errorf("ocr: %w", err)
	}
	return ExtractIncomeFromText(resp.Text)
}
