package pipefy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

const defaultContentType = "application/octet-stream"

// PresignedURL asks Pipefy for a short-lived upload URL for fileName.
func (c *Client) PresignedURL(ctx context.Context, fileName string) (string, error) {
	if err := validateID("organization", c.organizationID); err != nil {
		return "", fmt.Errorf("pipefy createPresignedUrl: %w", err)
	}
	var resp struct {
		Result *struct {
			URL string `json:"url"`
		} `json:"createPresignedUrl"`
	}
	query := fmt.Sprintf(`mutation { createPresignedUrl(input: { organizationId: %s, fileName: %s }) { clientMutationId url } }`,
		c.organizationID, quote(fileName))
	if err := c.do(ctx, "createPresignedUrl", query, &resp); err != nil {
		return "", err
	}
	if resp.Result == nil || resp.Result.URL == "" {
		return "", fmt.Errorf("pipefy createPresignedUrl: %w: no url", ErrMalformedResponse)
	}
	return resp.Result.URL, nil
}

// storagePath is the escaped path of a pre-signed URL without the leading
// slash, which is how attachment fields reference the upload.
func storagePath(uploadURL string) (string, error) {
	u, err := url.Parse(uploadURL)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(u.EscapedPath(), "/"), nil
}

// fileNameFromURL returns the decoded last path segment of rawURL. A path
// ending in "/" has no file name.
func fileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := u.Path[strings.LastIndex(u.Path, "/")+1:]
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: no file name in %q", ErrInvalidArgument, rawURL)
	}
	return name, nil
}

// UploadFileFromURL downloads sourceURL and uploads it to Pipefy storage,
// returning the storage path. The source content type is kept.
func (c *Client) UploadFileFromURL(ctx context.Context, sourceURL string) (string, error) {
	name, err := fileNameFromURL(sourceURL)
	if err != nil {
		return "", c.uploadFailed(sourceURL, "parse source url", err)
	}

	uploadURL, err := c.PresignedURL(ctx, name)
	if err != nil {
		return "", c.uploadFailed(name, "pre-signed url", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", c.uploadFailed(name, "build source request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.uploadFailed(name, "fetch source", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.uploadFailed(name, "fetch source", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	return c.put(ctx, name, uploadURL, contentType, resp.Body, resp.ContentLength)
}

// UploadFileFromBuffer uploads data as fileName and returns the storage
// path.
func (c *Client) UploadFileFromBuffer(ctx context.Context, fileName string, data []byte) (string, error) {
	return c.UploadFileFromReader(ctx, fileName, defaultContentType, bytes.NewReader(data))
}

// UploadFileFromReader uploads the contents of r as fileName. An empty
// contentType is sent as application/octet-stream.
func (c *Client) UploadFileFromReader(ctx context.Context, fileName, contentType string, r io.Reader) (string, error) {
	uploadURL, err := c.PresignedURL(ctx, fileName)
	if err != nil {
		return "", c.uploadFailed(fileName, "pre-signed url", err)
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	return c.put(ctx, fileName, uploadURL, contentType, r, -1)
}

// UploadFileFromObject copies an object from the configured object source
// into Pipefy storage. The file name is the last segment of key.
func (c *Client) UploadFileFromObject(ctx context.Context, bucket, key string) (string, error) {
	name := path.Base(key)
	if c.objects == nil {
		return "", c.uploadFailed(name, "open object", ErrNoObjectSource)
	}
	body, contentType, err := c.objects.GetObject(ctx, bucket, key)
	if err != nil {
		return "", c.uploadFailed(name, "open object", err)
	}
	defer func() { _ = body.Close() }()
	return c.UploadFileFromReader(ctx, name, contentType, body)
}

// put sends body to the pre-signed URL. A negative size buffers the body
// first so the request carries a Content-Length.
func (c *Client) put(ctx context.Context, name, uploadURL, contentType string, body io.Reader, size int64) (string, error) {
	if size < 0 {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", c.uploadFailed(name, "read body", err)
		}
		body, size = bytes.NewReader(data), int64(len(data))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return "", c.uploadFailed(name, "build upload request", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.uploadFailed(name, "upload", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.uploadFailed(name, "upload", fmt.Errorf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	p, err := storagePath(uploadURL)
	if err != nil {
		return "", c.uploadFailed(name, "parse upload url", err)
	}
	c.logger.Printf("pipefy upload %s: stored at %s", name, p)
	return p, nil
}

func (c *Client) uploadFailed(name, step string, err error) error {
	c.logger.Printf("pipefy upload %s: %s: %v", name, step, err)
	return fmt.Errorf("pipefy upload %s: %s: %w", name, step, err)
}
