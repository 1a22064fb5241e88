package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"
	"sync"

	"tienda-web/core"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	MaxUploadSize = 5 << 20
	MaxImages     = 4

	msgTooLarge    = "El archivo supera el límite de 5MB"
	msgInvalidType = "Tipo de archivo inválido. Solo se permiten JPG, PNG, GIF y WebP"
	msgTooMany     = "Máximo 4 imágenes permitidas"
)

var AllowedImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}

// ValidationError is a request rejected locally, before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ValidateImage checks an upload against the size and type limits.
func ValidateImage(name string, size int64, contentType string) error {
	if size > MaxUploadSize {
		return &ValidationError{Field: "file", Message: msgTooLarge}
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, allowed := range AllowedImageTypes {
		if contentType == allowed {
			return nil
		}
	}
	logrus.WithFields(logrus.Fields{"filename": name, "content_type": contentType}).Warn("Rejected upload type")
	return &ValidationError{Field: "file", Message: msgInvalidType}
}

// File is an image picked in the upload widget.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Progress reports bytes sent out of total.
type Progress func(sent, total int64)

// UploadResult is what the API returns for a stored image.
type UploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type Uploads struct {
	c *Client
}

func (c *Client) Uploads() *Uploads { return &Uploads{c: c} }

type progressReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress Progress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.progress(p.sent, p.total)
	}
	return n, err
}

// Upload validates file and posts it as multipart field "file". Invalid
// files never reach the network.
func (u *Uploads) Upload(ctx context.Context, file File, progress Progress) (*UploadResult, error) {
	if err := ValidateImage(file.Name, int64(len(file.Data)), file.ContentType); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, path.Base(file.Name)))
	header.Set("Content-Type", file.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var body io.Reader = &buf
	if progress != nil {
		body = &progressReader{r: &buf, total: int64(buf.Len()), progress: progress}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.c.baseURL+"/api/admin/upload", body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = int64(buf.Len())
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var result UploadResult
	if err := u.c.do(req, true, &result); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"filename": result.Filename, "size": result.Size}).Info("Image uploaded")
	return &result, nil
}

// Uploader is the part of Uploads the Tracker needs.
type Uploader interface {
	Upload(ctx context.Context, file File, progress Progress) (*UploadResult, error)
}

// Tracker follows the images of one product form through upload. It holds
// at most MaxImages entries, counting failed ones until they are removed.
type Tracker struct {
	uploader Uploader

	mu     sync.Mutex
	images []*core.UploadedImage
	files  map[*core.UploadedImage]File
}

// NewTracker starts from the product's existing image URLs.
func NewTracker(uploader Uploader, existing []string) *Tracker {
	t := &Tracker{uploader: uploader, files: make(map[*core.UploadedImage]File)}
	for _, url := range existing {
		t.images = append(t.images, &core.UploadedImage{
			Filename: path.Base(url),
			URL:      url,
			Progress: 100,
			Status:   core.UploadDone,
		})
	}
	return t
}

// Add validates every file, then uploads them concurrently. Validation
// failures reject the whole batch without any request.
func (t *Tracker) Add(ctx context.Context, files ...File) error {
	t.mu.Lock()
	if len(t.images)+len(files) > MaxImages {
		t.mu.Unlock()
		return &ValidationError{Field: "images", Message: msgTooMany}
	}
	for _, f := range files {
		if err := ValidateImage(f.Name, int64(len(f.Data)), f.ContentType); err != nil {
			t.mu.Unlock()
			return err
		}
	}
	entries := make([]*core.UploadedImage, len(files))
	for i, f := range files {
		entries[i] = &core.UploadedImage{
			Filename:    f.Name,
			ContentType: f.ContentType,
			Size:        int64(len(f.Data)),
			Status:      core.UploadPending,
		}
		t.images = append(t.images, entries[i])
		t.files[entries[i]] = f
	}
	t.mu.Unlock()

	var g errgroup.Group
	for i, f := range files {
		f := f
		entry := entries[i]
		g.Go(func() error {
			t.upload(ctx, entry, f)
			return nil
		})
	}
	return g.Wait()
}

func (t *Tracker) upload(ctx context.Context, entry *core.UploadedImage, f File) {
	t.update(entry, func(img *core.UploadedImage) {
		img.Status, img.Progress, img.Error = core.UploadUploading, 0, ""
	})

	result, err := t.uploader.Upload(ctx, f, func(sent, total int64) {
		if total <= 0 {
			return
		}
		t.update(entry, func(img *core.UploadedImage) {
			img.Progress = int(sent * 100 / total)
		})
	})
	if err != nil {
		logrus.WithError(err).WithField("filename", f.Name).Warn("Upload failed")
		t.update(entry, func(img *core.UploadedImage) {
			img.Status, img.Error = core.UploadFailed, Message(err, OpUploadImage)
		})
		return
	}
	t.update(entry, func(img *core.UploadedImage) {
		img.Status, img.Progress, img.URL = core.UploadDone, 100, result.URL
	})
}

func (t *Tracker) update(entry *core.UploadedImage, fn func(*core.UploadedImage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(entry)
}

func (t *Tracker) find(filename string) *core.UploadedImage {
	for _, img := range t.images {
		if img.Filename == filename {
			return img
		}
	}
	return nil
}

// Retry uploads a failed entry again.
func (t *Tracker) Retry(ctx context.Context, filename string) error {
	t.mu.Lock()
	entry := t.find(filename)
	if entry == nil {
		t.mu.Unlock()
		return core.ErrNotFound
	}
	f, ok := t.files[entry]
	if !ok || entry.Status != core.UploadFailed {
		t.mu.Unlock()
		return fmt.Errorf("%s is not a failed upload", filename)
	}
	t.mu.Unlock()

	t.upload(ctx, entry, f)
	return nil
}

func (t *Tracker) Remove(filename string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, img := range t.images {
		if img.Filename == filename {
			delete(t.files, img)
			t.images = append(t.images[:i], t.images[i+1:]...)
			return
		}
	}
}

// Images returns a snapshot of every entry in order.
func (t *Tracker) Images() []core.UploadedImage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]core.UploadedImage, len(t.images))
	for i, img := range t.images {
		out[i] = *img
	}
	return out
}

// URLs returns the URLs of the finished uploads, in order.
func (t *Tracker) URLs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	urls := []string{}
	for _, img := range t.images {
		if img.Status == core.UploadDone {
			urls = append(urls, img.URL)
		}
	}
	return urls
}
