package handlers

import (
	"github.com/gin-gonic/gin"
)

// StreamCount pushes the owner's line count over server-sent events so a
// navigation badge can stay current without polling. The subscription lives
// exactly as long as the connection.
func (h *Handler) StreamCount(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	sub := h.bus.Subscribe(8)
	defer sub.Unsubscribe()

	c.Writer.Header().Set("Cache-Control", "no-cache")

	// Initial snapshot so the badge renders before any mutation happens.
	c.SSEvent("count", h.cConf.Count(c.Request.Context(), owner))
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case e, open := <-sub.C:
			if !open {
				return
			}
			if e.OwnerID != owner {
				continue
			}
			c.SSEvent("count", e.Lines)
			c.Writer.Flush()
		}
	}
}
