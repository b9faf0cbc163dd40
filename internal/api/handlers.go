package api

import (
	"errors"
	"net/http"

	"charmstudio/internal/charm"
	"charmstudio/internal/logging"
	"charmstudio/internal/navigator"
	"charmstudio/internal/phase"
	"charmstudio/internal/studio"

	"github.com/gin-gonic/gin"
)

// ForgeRequest is the body of POST /api/charms.
type ForgeRequest struct {
	Prompt   string `json:"prompt"`
	Type     string `json:"type"`
	Override string `json:"override,omitempty"`
}

// BeamRequest is the body of POST /api/charms/:id/beam.
type BeamRequest struct {
	Target string `json:"target" binding:"required"`
}

// AcceptedResponse acknowledges a phase run that continues in the background.
type AcceptedResponse struct {
	Operation string `json:"operation"`
	CharmID   string `json:"charmId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HealthHandler reports liveness.
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// SnapshotHandler returns the full studio view.
func SnapshotHandler(s Studio) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Snapshot())
	}
}

// ListCharmsHandler returns every charm in creation order.
func ListCharmsHandler(s Studio) gin.HandlerFunc {
	return func(c *gin.Context) {
		charms := s.Charms()
		if charms == nil {
			charms = []charm.Charm{}
		}
		c.JSON(http.StatusOK, charms)
	}
}

// GetCharmHandler returns one charm.
func GetCharmHandler(s Studio) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, err := s.Charm(c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ch)
	}
}

// GenerationHandler returns the joined generation state.
func GenerationHandler(s Studio) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Generation())
	}
}

// ForgeHandler generates a new charm synchronously.
func ForgeHandler(s Studio) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ForgeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		// The studio starts with LOGIC selected.
		t := charm.TypeLogic
		if req.Type != "" {
			parsed, err := charm.ParseType(req.Type)
			if err != nil {
				c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
			t = parsed
		}

		created, err := s.Forge(c.Request.Context(), req.Prompt, t, studio.WithOverride(req.Override))
		if err != nil {
			writeError(c, err)
			return
		}
		if created == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// ProveHandler starts proving a draft charm.
func ProveHandler(s Studio, bg *Background) gin.HandlerFunc {
	return accept(bg, func(c *gin.Context) (*phase.Pending, error) {
		return s.BeginProve(c.Param("id"))
	})
}

// BroadcastHandler starts broadcasting a proven charm.
func BroadcastHandler(s Studio, bg *Background) gin.HandlerFunc {
	return accept(bg, func(c *gin.Context) (*phase.Pending, error) {
		return s.BeginBroadcast(c.Param("id"))
	})
}

// BeamHandler starts beaming a minted charm to another chain.
func BeamHandler(s Studio, bg *Background) gin.HandlerFunc {
	return accept(bg, func(c *gin.Context) (*phase.Pending, error) {
		var req BeamRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, badRequest{err}
		}
		target, err := charm.ParseChain(req.Target)
		if err != nil {
			return nil, badRequest{err}
		}
		return s.BeginBeam(c.Param("id"), target)
	})
}

// accept claims the run during the request so precondition failures are
// reported synchronously, then leaves the timed part to bg.
func accept(bg *Background, begin func(*gin.Context) (*phase.Pending, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, err := begin(c)
		if err != nil {
			writeError(c, err)
			return
		}
		bg.Go(pending)
		key := pending.Key()
		c.JSON(http.StatusAccepted, AcceptedResponse{Operation: key.String(), CharmID: key.Target})
	}
}

// ListTopicsHandler returns the protocol reference pages.
func ListTopicsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, navigator.Topics())
	}
}

// GetTopicHandler returns one protocol reference page.
func GetTopicHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := navigator.Lookup(c.Param("slug"))
		if !ok {
			c.JSON(http.StatusNotFound, errorResponse{Error: "topic not found"})
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

// writeError maps studio errors onto status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var br badRequest
	switch {
	case errors.As(err, &br), errors.Is(err, studio.ErrInvalidType):
		status = http.StatusBadRequest
	case errors.Is(err, studio.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, studio.ErrInvalidTransition), errors.Is(err, studio.ErrOperationInFlight):
		status = http.StatusConflict
	case errors.Is(err, studio.ErrGenerationFailed):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		logging.ServerError("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}
