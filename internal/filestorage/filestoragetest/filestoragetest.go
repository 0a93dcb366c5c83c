// Package filestoragetest provides an in-memory Store and multipart helpers for tests.
package filestoragetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// MemoryStore records saved objects in memory. FailSave makes every Save fail.
type MemoryStore struct {
	mu       sync.Mutex
	Objects  map[string][]byte
	Deleted  []string
	FailSave bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, fh *multipart.FileHeader, subDir string) (string, error) {
	if s.FailSave {
		return "", fmt.Errorf("memory store: save disabled")
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	name := path.Join(subDir, uuid.NewString()+path.Ext(fh.Filename))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[name] = data
	return name, nil
}

func (s *MemoryStore) Delete(_ context.Context, relativePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, relativePath)
	s.Deleted = append(s.Deleted, relativePath)
	return nil
}

func (s *MemoryStore) URL(relativePath string) string {
	return "http://files.test/" + relativePath
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Objects)
}

// NewFileHeader builds a multipart.FileHeader the same way gin would parse it from a request.
func NewFileHeader(t *testing.T, fieldname, filename, content, contentType string) *multipart.FileHeader {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldname, filename))
	if contentType != "" {
		partHeader.Set("Content-Type", contentType)
	}

	part, err := writer.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)

	files := form.File[fieldname]
	require.NotEmpty(t, files, "No files found for fieldname %s", fieldname)
	return files[0]
}

// File describes one file part for NewMultipartBody.
type File struct {
	Field       string
	Name        string
	Content     string
	ContentType string
}

// NewMultipartBody encodes fields and files as a multipart/form-data body,
// returning the body and its Content-Type header.
func NewMultipartBody(t *testing.T, fields map[string]string, files ...File) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.Field, f.Name))
		if f.ContentType != "" {
			h.Set("Content-Type", f.ContentType)
		}
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader(f.Content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}
