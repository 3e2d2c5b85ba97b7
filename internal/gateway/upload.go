package gateway

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"e2egateway/internal/domain"
)

// UploadBlob uploads already encrypted data and returns its blob id.
// Every failure is reported as domain.ErrUploadFailed, except a 413 from the
// gateway which is domain.ErrBlobTooLarge.
func (c *Client) UploadBlob(ctx context.Context, data []byte) (domain.BlobID, error) {
	const op = "upload"
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("blob", "blob.bin")
	if err != nil {
		return domain.BlobID{}, domain.E(domain.ErrUploadFailed, op, err)
	}
	if _, err := fw.Write(data); err != nil {
		return domain.BlobID{}, domain.E(domain.ErrUploadFailed, op, err)
	}
	if err := mw.Close(); err != nil {
		return domain.BlobID{}, domain.E(domain.ErrUploadFailed, op, err)
	}

	status, body, err := c.do(ctx, op, http.MethodPost, "/upload_blob", &buf, mw.FormDataContentType())
	if err != nil {
		return domain.BlobID{}, domain.E(domain.ErrUploadFailed, op, err)
	}
	if status/100 != 2 {
		return domain.BlobID{}, uploadError(status)
	}
	id, err := domain.ParseBlobID(string(body))
	if err != nil {
		return domain.BlobID{}, domain.E(domain.ErrUploadFailed, op, err)
	}
	return id, nil
}
