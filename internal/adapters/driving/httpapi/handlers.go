package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

type handlers struct {
	ports Ports
}

// credentialEvent reports a credential set or removed by the host.
type credentialEvent struct {
	Name      string     `json:"name" binding:"required"`
	Domain    string     `json:"domain" binding:"required"`
	Value     string     `json:"value"`
	Path      string     `json:"path"`
	ExpiresAt *time.Time `json:"expires_at"`
	Session   bool       `json:"session"`
	Secure    bool       `json:"secure"`
	HTTPOnly  bool       `json:"http_only"`
	Removed   bool       `json:"removed"`
}

type navigationEvent struct {
	Address   string `json:"address" binding:"required"`
	SurfaceID string `json:"surface_id"`
}

type surfaceEvent struct {
	SurfaceID string `json:"surface_id"`
}

type surfacesRequest struct {
	Surfaces []struct {
		ID      string `json:"id" binding:"required"`
		Address string `json:"address"`
	} `json:"surfaces"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.ports.Version})
}

func (h *handlers) syncNow(c *gin.Context) {
	trigger := domain.TriggerManualAPI
	if t := c.Query("trigger"); t != "" {
		trigger = domain.Trigger(t)
	}
	h.command(c, func(ctx context.Context) (*domain.CommandResult, error) {
		return h.ports.Agent.SyncNow(ctx, trigger)
	})
}

func (h *handlers) testConnection(c *gin.Context) {
	h.command(c, h.ports.Agent.TestConnection)
}

func (h *handlers) clearAll(c *gin.Context) {
	h.command(c, h.ports.Agent.ClearAll)
}

func (h *handlers) credentials(c *gin.Context) {
	h.command(c, h.ports.Agent.GetCredentials)
}

func (h *handlers) removeCredential(c *gin.Context) {
	name := c.Param("name")
	h.command(c, func(ctx context.Context) (*domain.CommandResult, error) {
		return h.ports.Agent.RemoveCredential(ctx, name)
	})
}

func (h *handlers) status(c *gin.Context) {
	status, err := h.ports.Agent.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *handlers) history(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	outcomes, err := h.ports.Agent.History(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if outcomes == nil {
		outcomes = []domain.OutcomeRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes, "count": len(outcomes)})
}

func (h *handlers) credentialChanged(c *gin.Context) {
	var ev credentialEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if jar := h.ports.Jar; jar != nil {
		if ev.Removed {
			// Unknown credentials are fine: the host may report removals we never saw.
			_ = jar.Remove(c.Request.Context(), ev.Domain, ev.Name)
		} else {
			jar.Put(domain.CredentialRecord{
				Name:      ev.Name,
				Value:     ev.Value,
				Domain:    ev.Domain,
				Path:      ev.Path,
				ExpiresAt: ev.ExpiresAt,
				Session:   ev.Session || ev.ExpiresAt == nil,
				Secure:    ev.Secure,
				HTTPOnly:  ev.HTTPOnly,
			})
		}
	}

	h.ports.Events.CredentialChanged(ev.Name, ev.Domain)
	c.Status(http.StatusAccepted)
}

func (h *handlers) navigationCompleted(c *gin.Context) {
	var ev navigationEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.ports.Surfaces != nil && ev.SurfaceID != "" {
		h.ports.Surfaces.Open(ev.SurfaceID, ev.Address)
	}
	h.ports.Events.NavigationCompleted(ev.Address)
	c.Status(http.StatusAccepted)
}

func (h *handlers) surfaceClosed(c *gin.Context) {
	var ev surfaceEvent
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&ev); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if h.ports.Surfaces != nil && ev.SurfaceID != "" {
		h.ports.Surfaces.Close(ev.SurfaceID)
	}
	h.ports.Events.SurfaceClosed()
	c.Status(http.StatusAccepted)
}

func (h *handlers) focusChanged(c *gin.Context) {
	h.ports.Events.FocusChanged()
	c.Status(http.StatusAccepted)
}

func (h *handlers) replaceSurfaces(c *gin.Context) {
	if h.ports.Surfaces == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "liveness source does not accept pushed surfaces"})
		return
	}

	var req surfacesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	surfaces := make(map[string]string, len(req.Surfaces))
	for _, s := range req.Surfaces {
		surfaces[s.ID] = s.Address
	}
	h.ports.Surfaces.Replace(surfaces)
	h.ports.Events.FocusChanged()
	c.Status(http.StatusAccepted)
}

func (h *handlers) command(c *gin.Context, run func(context.Context) (*domain.CommandResult, error)) {
	result, err := run(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// respondError maps domain errors to status codes.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSchedulerStopped):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, domain.CommandResult{Error: err.Error()})
}
