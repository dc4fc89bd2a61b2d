package financesdk

import (
	"context"
	"mime"
	"net/http"
	"path"
)

// DefaultExportFilename is used when the backend sends no filename.
const DefaultExportFilename = "transactions.csv"

// ExportCSV downloads every transaction as CSV. The body is kept as bytes
// and never decoded.
func (c *Client) ExportCSV(ctx context.Context) (*Export, error) {
	resp, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/export/csv/",
		Header: http.Header{"Accept": {"text/csv"}},
	})
	if err != nil {
		return nil, err
	}

	contentType := resp.ContentType()
	if contentType == "" {
		contentType = "text/csv; charset=utf-8"
	}

	return &Export{
		Filename:    exportFilename(resp.Header.Get("Content-Disposition")),
		ContentType: contentType,
		Data:        resp.Body,
	}, nil
}

func exportFilename(disposition string) string {
	if disposition == "" {
		return DefaultExportFilename
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return DefaultExportFilename
	}
	name := path.Base(params["filename"])
	if name == "" || name == "." || name == "/" {
		return DefaultExportFilename
	}
	return name
}
