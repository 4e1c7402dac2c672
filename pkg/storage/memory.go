package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

// Op names an ObjectStore operation for fault injection
type Op string

const (
	OpURL      Op = "url"
	OpDownload Op = "download"
	OpUpload   Op = "upload"
	OpDelete   Op = "delete"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// Memory is an in-process ObjectStore. It backs the "memory" backend for
// local development and is the collaborator used throughout the tests.
type Memory struct {
	bucketName string

	mu        sync.RWMutex
	objects   map[string]memoryObject
	faults    map[Op]map[string]error
	listAfter int
	listErr   error
}

// NewMemory returns an empty bucket
func NewMemory(bucketName string) *Memory {
	return &Memory{
		bucketName: bucketName,
		objects:    make(map[string]memoryObject),
		faults:     make(map[Op]map[string]error),
	}
}

// Put stores data under key
func (m *Memory) Put(key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
}

// Get returns a copy of the object data and its content type
func (m *Memory) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), obj.data...), obj.contentType, true
}

// Has reports whether key exists
func (m *Memory) Has(key string) bool {
	_, _, ok := m.Get(key)
	return ok
}

// Fail makes op on key return err until cleared with a nil err
func (m *Memory) Fail(op Op, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.faults[op], key)
		return
	}
	if m.faults[op] == nil {
		m.faults[op] = make(map[string]error)
	}
	m.faults[op][key] = err
}

// FailListAfter makes List return err after n objects
func (m *Memory) FailListAfter(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listAfter = n
	m.listErr = err
}

func (m *Memory) fault(op Op, key string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.faults[op][key]
}

// List returns objects in key order
func (m *Memory) List(_ context.Context) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	objects := make([]ObjectInfo, 0, len(keys))
	for i, key := range keys {
		if m.listErr != nil && i == m.listAfter {
			return objects, fmt.Errorf("error iterating objects: %w", m.listErr)
		}
		objects = append(objects, ObjectInfo{Key: key, Size: int64(len(m.objects[key].data))})
	}
	if m.listErr != nil && m.listAfter >= len(keys) {
		return objects, fmt.Errorf("error iterating objects: %w", m.listErr)
	}

	return objects, nil
}

// URL returns a memory:// address for the object
func (m *Memory) URL(_ context.Context, key string) (string, error) {
	if err := m.fault(OpURL, key); err != nil {
		return "", err
	}
	if !m.Has(key) {
		return "", fmt.Errorf("object %s not found", key)
	}
	return fmt.Sprintf("memory://%s/%s", m.bucketName, key), nil
}

// Download writes the object to the local file dst
func (m *Memory) Download(_ context.Context, key, dst string) error {
	if err := m.fault(OpDownload, key); err != nil {
		return err
	}
	data, _, ok := m.Get(key)
	if !ok {
		return fmt.Errorf("object %s not found", key)
	}
	return os.WriteFile(dst, data, 0o644)
}

// Upload stores the contents of r under key
func (m *Memory) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if err := m.fault(OpUpload, key); err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	m.Put(key, buf.Bytes(), contentType)
	return nil
}

// Delete removes key. A missing key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	if err := m.fault(OpDelete, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}
