package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/pkg/zip"
)

const maxExportAssets = 50

// ListAssets returns a page of generated assets, optionally filtered by
// content type.
func (a *App) ListAssets(w http.ResponseWriter, r *http.Request) {
	filter, ok := a.assetFilter(w, r)
	if !ok {
		return
	}
	assets, total, err := a.Assets.List(r.Context(), filter)
	if err != nil {
		a.Logger.Error().Err(err).Msg("http: list assets failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load assets")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"items": assetItems(assets),
		"total": total,
		"page":  filter.Page,
		"size":  filter.Size,
	})
}

// Gallery returns only published assets.
func (a *App) Gallery(w http.ResponseWriter, r *http.Request) {
	filter, ok := a.assetFilter(w, r)
	if !ok {
		return
	}
	filter.PublishedOnly = true
	assets, total, err := a.Assets.List(r.Context(), filter)
	if err != nil {
		a.Logger.Error().Err(err).Msg("http: gallery failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load gallery")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"items": assetItems(assets),
		"total": total,
		"page":  filter.Page,
		"size":  filter.Size,
	})
}

// PublishAsset toggles gallery visibility for an asset.
func (a *App) PublishAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "id")
	if assetID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "asset id required")
		return
	}
	var req struct {
		Published *bool `json:"published"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	published := true
	if req.Published != nil {
		published = *req.Published
	}
	if err := a.Assets.SetPublished(r.Context(), assetID, published); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "asset not found")
			return
		}
		a.Logger.Error().Err(err).Str("asset_id", assetID).Msg("http: publish asset failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update asset")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"asset_id": assetID, "published": published})
}

// DeleteAsset removes an asset record.
func (a *App) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "id")
	if assetID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "asset id required")
		return
	}
	if err := a.Assets.Delete(r.Context(), assetID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "asset not found")
			return
		}
		a.Logger.Error().Err(err).Str("asset_id", assetID).Msg("http: delete asset failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete asset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportAssets streams a zip archive of the newest assets matching the
// filter. Assets whose files are no longer on disk are skipped.
func (a *App) ExportAssets(w http.ResponseWriter, r *http.Request) {
	filter, ok := a.assetFilter(w, r)
	if !ok {
		return
	}
	if filter.Size <= 0 || filter.Size > maxExportAssets {
		filter.Size = maxExportAssets
	}
	assets, _, err := a.Assets.List(r.Context(), filter)
	if err != nil {
		a.Logger.Error().Err(err).Msg("http: export assets failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load assets")
		return
	}

	var entries []zip.Asset
	for _, asset := range assets {
		key, ok := a.storageKeyFromURL(asset.URL)
		if !ok {
			continue
		}
		data, err := a.Store.Read(key)
		if err != nil {
			a.Logger.Warn().Err(err).Str("asset_id", asset.AssetID).Msg("http: export read failed")
			continue
		}
		entries = append(entries, zip.Asset{
			Filename: asset.AssetID + path.Ext(key),
			Data:     data,
		})
	}
	if len(entries) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no exportable assets")
		return
	}

	archive, err := zip.ArchiveAssets(entries)
	if err != nil {
		a.Logger.Error().Err(err).Msg("http: build export archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="assets.zip"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	_, _ = w.Write(archive)
}

func (a *App) assetFilter(w http.ResponseWriter, r *http.Request) (domain.AssetFilter, bool) {
	filter := domain.AssetFilter{}
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		contentType := domain.ContentType(strings.ToUpper(raw))
		if !contentType.Valid() {
			a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown content type %q", raw))
			return filter, false
		}
		filter.ContentType = contentType
	}
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	filter.Size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	return filter, true
}

// storageKeyFromURL maps a public asset URL back to its storage key.
func (a *App) storageKeyFromURL(url string) (string, bool) {
	base := strings.TrimRight(a.StorageBaseURL, "/")
	if base == "" || !strings.HasPrefix(url, base+"/") {
		return "", false
	}
	key := strings.TrimPrefix(url, base+"/")
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

func assetItems(assets []domain.Asset) []map[string]any {
	items := make([]map[string]any, 0, len(assets))
	for _, asset := range assets {
		item := map[string]any{
			"asset_id":     asset.AssetID,
			"task_id":      asset.TaskID,
			"content_type": asset.ContentType,
			"url":          asset.URL,
			"prompt":       asset.Prompt,
			"model":        asset.Model,
			"published":    asset.Published,
			"created_at":   asset.CreatedAt,
		}
		if asset.ThumbnailURL != "" {
			item["thumbnail_url"] = asset.ThumbnailURL
		}
		items = append(items, item)
	}
	return items
}
