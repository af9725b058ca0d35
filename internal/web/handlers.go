package web

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/locky/internal/config"
	"github.com/hpungsan/locky/internal/errors"
	"github.com/hpungsan/locky/internal/preview"
	"github.com/hpungsan/locky/internal/record"
	"github.com/hpungsan/locky/internal/storage"
	"github.com/hpungsan/locky/internal/vault"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	vault    *vault.Manager
	cfg      *config.Config
	renderer *Renderer
	logger   *zap.Logger
}

// HandleList handles GET /files.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := h.vault.List(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	var total int64
	for _, item := range result.Items {
		total += item.SizeBytes
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Vault",
			Version: h.renderer.version,
		},
		Items:     result.Items,
		TotalSize: total,
		Removed:   r.URL.Query().Get("removed"),
	})
}

// HandleDetail handles GET /files/{name}.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rec, err := h.vault.Record(r.Context(), name)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, rec)
		return
	}

	data := DetailPageData{
		PageData: PageData{
			Title:   rec.Filename,
			Version: h.renderer.version,
		},
		Record:      rec,
		Description: rec.DescriptionOrDefault(),
	}

	path, err := h.vault.Path(name)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if err := h.loadContent(&data, path); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "detail", data)
}

// loadContent fills the content fields of data from the stored copy.
func (h *Handlers) loadContent(data *DetailPageData, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			data.Missing = true
			return nil
		}
		return errors.NewStorageFault("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.NewStorageFault("stat", path, err)
	}
	if !info.Mode().IsRegular() {
		data.Missing = true
		return nil
	}

	limit := h.cfg.Preview.MaxBytes
	if limit <= 0 {
		limit = preview.DefaultMaxBytes
	}
	buf, err := io.ReadAll(io.LimitReader(f, int64(limit)))
	if err != nil {
		return errors.NewStorageFault("read", path, err)
	}

	if storage.LooksBinary(buf) {
		data.Binary = true
		return nil
	}

	data.Truncated = info.Size() > int64(len(buf))
	data.ShownBytes = int64(len(buf))
	text := string(storage.TrimPartialRune(buf))
	if isMarkdown(path) {
		data.RenderedHTML = renderMarkdown(text)
	} else {
		data.Text = text
	}
	return nil
}

// HandleRaw handles GET /files/{name}/raw: the stored bytes as a download.
func (h *Handlers) HandleRaw(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	path, err := h.vault.Path(name)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewNotFound(name))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		h.renderer.renderError(w, r, errors.NewNotFound(name))
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// HandleRemove handles POST /files/{name}/remove.
func (h *Handlers) HandleRemove(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := record.ValidateFilename(name); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := h.vault.Remove(r.Context(), vault.RemoveInput{Filenames: []string{name}})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if len(result.Faults) > 0 {
		f := result.Faults[0]
		h.logger.Warn("remove failed", zap.String("file", name), zap.String("code", string(f.Code)))
		h.renderer.renderError(w, r, &errors.VaultError{Code: f.Code, Message: f.Message})
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/files?removed="+url.QueryEscape(name), http.StatusSeeOther)
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown":
		return true
	}
	return false
}

// fileURL returns the detail URL for a vault filename.
func fileURL(name string) string {
	return fmt.Sprintf("/files/%s", url.PathEscape(name))
}
