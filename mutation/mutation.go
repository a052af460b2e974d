// Package mutation appends directives to the ledger's source files on behalf
// of external callers. Every mutation is an append: existing bytes are never
// rewritten, so user formatting survives. Writes are atomic (temp file +
// rename) and serialized through a single writer lock; the file watcher
// picks up the change and triggers the rebuild.
package mutation

import (
	"bytes"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/KushNee/zhang/ast"
	"github.com/KushNee/zhang/exporter"
)

// RouteFunc decides which file receives a directive dated at the given
// instant. root is the absolute path of the root ledger file.
type RouteFunc func(root string, date *ast.Date) string

// SingleFile routes every append to the root ledger file.
func SingleFile(root string, _ *ast.Date) string {
	return root
}

// MonthlyFiles routes appends to data/YYYY-MM.zhang beside the root file.
// A month file that does not exist yet is created and included from the root.
func MonthlyFiles(root string, date *ast.Date) string {
	return filepath.Join(filepath.Dir(root), "data", date.Format("2006-01")+".zhang")
}

// Service performs append mutations against a ledger tree.
type Service struct {
	mu    sync.Mutex
	root  string
	route RouteFunc
}

// Option configures a Service.
type Option func(*Service)

// WithRoute overrides the file routing for dated appends.
func WithRoute(route RouteFunc) Option {
	return func(s *Service) { s.route = route }
}

// WithMonthlyRouting routes appends into one file per month.
func WithMonthlyRouting() Option {
	return WithRoute(MonthlyFiles)
}

// New creates a mutation service for the ledger rooted at the given file.
func New(root string, opts ...Option) *Service {
	s := &Service{
		root:  root,
		route: SingleFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendTransaction writes the transaction's canonical text to the file
// routed by its date.
func (s *Service) AppendTransaction(txn *ast.Transaction) error {
	return s.appendDirective(txn.Date, exporter.Transaction(txn))
}

// AppendBalancePad appends a balance assertion with a pad account.
func (s *Service) AppendBalancePad(date *ast.Date, account ast.Account, amount *ast.Amount, pad ast.Account) error {
	balance := &ast.Balance{
		Date:    date,
		Account: account,
		Amount:  amount,
		Pad:     pad,
	}
	return s.appendDirective(date, exporter.Directive(balance))
}

// UploadDocument stores a blob under documents/<account path>/ and appends a
// document directive referencing it. Returns the path relative to the ledger
// root directory.
func (s *Service) UploadDocument(date *ast.Date, account ast.Account, data []byte, mimeType string) (string, error) {
	name := fmt.Sprintf("%s-%s%s", date.Format("2006-01-02"), uuid.NewString(), extensionFor(mimeType))
	relPath := filepath.Join("documents", filepath.Join(account.Segments()...), name)
	absPath := filepath.Join(filepath.Dir(s.root), relPath)

	s.mu.Lock()
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		s.mu.Unlock()
		return "", fmt.Errorf("failed to create document directory: %w", err)
	}
	if err := atomicWrite(absPath, data); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()

	doc := &ast.Document{
		Date:    date,
		Account: account,
		Path:    filepath.ToSlash(relPath),
	}
	if err := s.appendDirective(date, exporter.Directive(doc)); err != nil {
		return "", err
	}

	return filepath.ToSlash(relPath), nil
}

// appendDirective serializes the append under the writer lock: route the
// target file, make sure a fresh month file is included from the root, then
// atomically rewrite the target with the directive appended.
func (s *Service) appendDirective(date *ast.Date, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.route(s.root, date)

	if target != s.root {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			if err := s.ensureIncluded(target); err != nil {
				return err
			}
		}
	}

	return appendText(target, text)
}

// ensureIncluded appends an include directive for target to the root file
// unless one is already present.
func (s *Service) ensureIncluded(target string) error {
	rel, err := filepath.Rel(filepath.Dir(s.root), target)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)

	content, err := os.ReadFile(s.root)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.root, err)
	}

	include := fmt.Sprintf("include %q", rel)
	if bytes.Contains(content, []byte(include)) {
		return nil
	}

	return appendText(s.root, include)
}

// appendText appends a directive to a file, preserving trailing-newline
// discipline: the existing content is untouched, a blank line separates the
// new directive, and the file keeps a single trailing newline.
func appendText(path string, text string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var b bytes.Buffer
	b.Write(content)
	if len(content) > 0 {
		if content[len(content)-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString(text)
	b.WriteByte('\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	return atomicWrite(path, b.Bytes())
}

// atomicWrite writes data through a temp file in the same directory and
// renames it into place, so the watcher never observes a half-written file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

// extensionFor maps a MIME type to a file extension, defaulting to .bin.
func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "application/pdf":
		return ".pdf"
	case "text/plain":
		return ".txt"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		ext := exts[0]
		if strings.HasPrefix(ext, ".") {
			return ext
		}
	}
	return ".bin"
}
