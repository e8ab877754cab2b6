package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iftarsharebd/iftarmap/internal/domain/models"
)

// AddSpot stores a new spot for today.
func (h *BoardHandler) AddSpot(c *gin.Context) {
	var in models.SpotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badBody(c, err)
		return
	}

	res, err := h.board.AddSpot(c.Request.Context(), in, h.locator(c, in.Fix))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// AddRoute stores a road report for today.
func (h *BoardHandler) AddRoute(c *gin.Context) {
	var in models.RouteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badBody(c, err)
		return
	}

	res, err := h.board.AddRoute(c.Request.Context(), in, h.locator(c, in.Fix))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// AddHelpRequest stores an aid request for today.
func (h *BoardHandler) AddHelpRequest(c *gin.Context) {
	var in models.HelpInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badBody(c, err)
		return
	}

	res, err := h.board.AddHelpRequest(c.Request.Context(), in, h.locator(c, in.Fix))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// RegisterVolunteer adds a volunteer.
func (h *BoardHandler) RegisterVolunteer(c *gin.Context) {
	var in models.VolunteerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badBody(c, err)
		return
	}

	res, err := h.board.RegisterVolunteer(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Vote records the caller's vote on a spot.
func (h *BoardHandler) Vote(c *gin.Context) {
	var in models.VoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badBody(c, err)
		return
	}

	res, err := h.board.Vote(c.Request.Context(), sessionID(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// MarkFulfilled closes an aid request.
func (h *BoardHandler) MarkFulfilled(c *gin.Context) {
	res, err := h.board.MarkFulfilled(c.Request.Context(), sessionID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
