package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"garden-alert-service/internal/channels"
	apierrors "garden-alert-service/pkg/errors"
	"garden-alert-service/pkg/response"
)

// SubscriberHandler upgrades inbound HTTP requests to websocket connections
// and registers them with the BroadcastChannel.
type SubscriberHandler struct {
	broadcast *channels.BroadcastChannel
}

// NewSubscriberHandler builds a SubscriberHandler.
func NewSubscriberHandler(broadcast *channels.BroadcastChannel) *SubscriberHandler {
	return &SubscriberHandler{broadcast: broadcast}
}

// Handle serves GET /ws, upgrading the connection and registering it as a
// subscriber identified by a fresh uuid.
func (h *SubscriberHandler) Handle(c *gin.Context) {
	id := fmt.Sprintf("sub-%s", uuid.NewString())
	if err := h.broadcast.HandleConnection(c.Writer, c.Request, id); err != nil {
		werr := apierrors.NewCodeError(apierrors.ErrValidationFailed.Code, "websocket upgrade failed")
		response.Error(c, werr.Code, werr.Message)
	}
}
