package stremio

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ottshelf/internal/cache"
	"ottshelf/internal/refresh"
	"ottshelf/pkg/models"
)

// Manifest is the addon descriptor served at /manifest.json.
type Manifest struct {
	ID          string            `json:"id"`
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Resources   []string          `json:"resources"`
	Types       []string          `json:"types"`
	Catalogs    []ManifestCatalog `json:"catalogs"`
	IDPrefixes  []string          `json:"idPrefixes"`
}

type ManifestCatalog struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Handler struct {
	Store        *cache.Store
	Scheduler    *refresh.Scheduler
	Catalogs     []models.Catalog
	ImageBaseURL string
	AddonID      string
	AddonName    string
}

func NewHandler(store *cache.Store, scheduler *refresh.Scheduler, catalogs []models.Catalog, imageBaseURL string) *Handler {
	return &Handler{
		Store:        store,
		Scheduler:    scheduler,
		Catalogs:     catalogs,
		ImageBaseURL: imageBaseURL,
		AddonID:      "org.ottshelf.catalog",
		AddonName:    "ottshelf",
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// Stremio clients install the addon cross-origin; every route must
	// answer with open CORS headers
	r.Use(cors.Default())

	r.GET("/manifest.json", h.manifest)
	r.GET("/catalog/movie/:id", h.catalog) // :id carries a ".json" suffix
	r.GET("/refresh", h.refresh)
	r.GET("/status", h.status)
}

func (h *Handler) manifest(c *gin.Context) {
	catalogs := make([]ManifestCatalog, 0, len(h.Catalogs))
	names := make([]string, 0, len(h.Catalogs))
	for _, cat := range h.Catalogs {
		catalogs = append(catalogs, ManifestCatalog{Type: "movie", ID: cat.ID, Name: cat.Name})
		names = append(names, cat.Name)
	}

	c.JSON(http.StatusOK, Manifest{
		ID:          h.AddonID,
		Version:     "1.0.0",
		Name:        h.AddonName,
		Description: "Latest " + strings.Join(names, " and ") + " movies on OTT",
		Resources:   []string{"catalog"},
		Types:       []string{"movie"},
		Catalogs:    catalogs,
		IDPrefixes:  []string{"tt"},
	})
}

func (h *Handler) catalog(c *gin.Context) {
	id := strings.TrimSuffix(c.Param("id"), ".json")

	if !h.knownCatalog(id) {
		c.JSON(http.StatusOK, gin.H{"metas": []Meta{}})
		return
	}

	snap := h.Store.Read(id)
	c.JSON(http.StatusOK, gin.H{"metas": ToMetas(snap.Movies, h.ImageBaseURL)})
}

func (h *Handler) refresh(c *gin.Context) {
	// detach from the request context: the crawl must outlive this request
	started, runID := h.Scheduler.Trigger(context.Background())

	status := h.Scheduler.Status()
	counts := make(map[string]int, len(status.Catalogs))
	for id, cs := range status.Catalogs {
		counts[id] = cs.ItemCount
	}

	resp := gin.H{"started": started, "counts": counts}
	if started {
		resp["run_id"] = runID
	} else {
		resp["state"] = status.State
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.Scheduler.Status())
}

func (h *Handler) knownCatalog(id string) bool {
	for _, cat := range h.Catalogs {
		if cat.ID == id {
			return true
		}
	}
	return false
}
