package http

import (
	"net/http"

	"streamshare/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v3"
)

// WebRTCHandler serves the ICE configuration clients need before they can
// open peer connections to a creator's media.
type WebRTCHandler struct {
	cfg *config.Config
}

func NewWebRTCHandler(cfg *config.Config) *WebRTCHandler {
	return &WebRTCHandler{cfg: cfg}
}

func (h *WebRTCHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/api/v1/webrtc/config", h.GetConfig)
}

func (h *WebRTCHandler) GetConfig(c *gin.Context) {
	servers := make([]webrtc.ICEServer, 0, len(h.cfg.WebRTC.ICEServers))
	for _, s := range h.cfg.WebRTC.ICEServers {
		server := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			server.Username = s.Username
			server.Credential = s.Credential
			server.CredentialType = webrtc.ICECredentialTypePassword
		}
		servers = append(servers, server)
	}
	if len(servers) == 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs: []string{"stun:stun.l.google.com:19302"},
		})
	}

	c.JSON(http.StatusOK, webrtc.Configuration{ICEServers: servers})
}
