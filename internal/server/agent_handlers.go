package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"otto/internal/agent"
	"otto/internal/extract"
	"otto/internal/httpclient"
	"otto/internal/jsonx"
)

type publicDataRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (s *Server) handlePublicData(c *gin.Context) {
	var req publicDataRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and Name are required"})
		return
	}

	prompt := agent.PublicDataPrompt(req.Name, req.Phone)
	reply, err := s.gateway.Send(c.Request.Context(), agent.KindPublicData, prompt, "")
	if err != nil {
		s.upstreamFailure(c, "Failed to fetch public data", err)
		return
	}

	// Prefer the JSON the agent embedded in its reply; fall back to the raw
	// envelope when there is none.
	if payload, ok := extract.Payload(reply); ok {
		c.Data(http.StatusOK, "application/json", payload)
		return
	}
	s.logger.Warn("Failed to parse JSON from public-data agent response")
	s.metrics.RecordParseFallback(c.Request.Context(), "public-data")
	c.Data(http.StatusOK, "application/json", reply)
}

func (s *Server) handleSavePreferences(c *gin.Context) {
	var preferences map[string]any
	if err := c.ShouldBindJSON(&preferences); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preference payload"})
		return
	}

	prompt, err := agent.PreferenceCreatePrompt(preferences)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preference payload", "details": err.Error()})
		return
	}

	reply, err := s.gateway.Send(c.Request.Context(), agent.KindPreferenceCreate, prompt, "")
	if err != nil {
		s.upstreamFailure(c, "Failed to save preferences", err)
		return
	}

	text := s.gateway.ReplyText(reply)
	// A record that already exists upstream is success for the user flow.
	if agent.IsConflictReply(text) {
		s.logger.Info("Preference record already exists, proceeding as success")
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Preferences already saved."})
		return
	}
	if agent.IsErrorReply(text) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save preferences", "details": text})
		return
	}

	c.Data(http.StatusOK, "application/json", reply)
}

func (s *Server) handleCalendarEvents(c *gin.Context) {
	reply, ok := s.forwardCalendar(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "application/json", reply)
}

func (s *Server) handleCalendarEventsStructured(c *gin.Context) {
	reply, ok := s.forwardCalendar(c)
	if !ok {
		return
	}

	events := extract.Events(reply)
	if len(events) == 0 {
		s.metrics.RecordParseFallback(c.Request.Context(), "calendar-events")
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// forwardCalendar posts the caller's prepared task envelope verbatim to the
// calendar agent. Responses are written by the caller; a false return means
// an error reply has already been sent.
func (s *Server) forwardCalendar(c *gin.Context) (jsonx.RawMessage, bool) {
	body, err := httpclient.ReadAllWithLimit(c.Request.Body, s.cfg.ResponseLimit)
	if err != nil || len(body) == 0 || !jsonx.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A JSON task body is required"})
		return nil, false
	}

	reply, err := s.gateway.Forward(c.Request.Context(), agent.KindCalendar, body)
	if err != nil {
		s.upstreamFailure(c, "Failed to fetch calendar events", err)
		return nil, false
	}
	return reply, true
}

type recommendationsRequest struct {
	Phone         string `json:"phone"`
	EventSummary  string `json:"event_summary"`
	EventLocation string `json:"event_location"`
}

func (s *Server) handleRecommendations(c *gin.Context) {
	var req recommendationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recommendation request"})
		return
	}

	prompt := agent.PreferenceQueryPrompt(req.Phone, req.EventSummary, req.EventLocation)
	reply, err := s.gateway.SendCached(c.Request.Context(), agent.KindPreferenceQuery, prompt, "")
	if err != nil {
		s.upstreamFailure(c, "Failed to get recommendations", err)
		return
	}
	c.Data(http.StatusOK, "application/json", reply)
}

type giftRequest struct {
	Events          any            `json:"events"`
	Preferences     map[string]any `json:"preferences"`
	Recommendations any            `json:"recommendations"`
}

func (s *Server) handleGiftIdeas(c *gin.Context) {
	var req giftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gift request"})
		return
	}

	reply, err := s.sendGiftQuery(c, &req)
	if err != nil {
		s.upstreamFailure(c, "Failed to get gift ideas", err)
		return
	}

	if payload, ok := extract.Payload(reply); ok {
		c.Data(http.StatusOK, "application/json", payload)
		return
	}
	s.logger.Warn("Failed to parse JSON from gift agent response")
	s.metrics.RecordParseFallback(c.Request.Context(), "gift")
	c.Data(http.StatusOK, "application/json", reply)
}

func (s *Server) sendGiftQuery(c *gin.Context, req *giftRequest) (jsonx.RawMessage, error) {
	userProfile := req.Preferences["user_profiles"]
	familyMembers := req.Preferences["family_members"]

	prompt, err := agent.GiftPrompt(req.Events, userProfile, familyMembers)
	if err != nil {
		return nil, err
	}
	return s.gateway.Send(c.Request.Context(), agent.KindGift, prompt, "")
}

type insightsRequest struct {
	Phone         string         `json:"phone"`
	EventSummary  string         `json:"event_summary"`
	EventLocation string         `json:"event_location"`
	Events        any            `json:"events"`
	Preferences   map[string]any `json:"preferences"`
}

// handleInsights runs the recommendation and gift queries for one event and
// returns both replies rendered as structured sections.
func (s *Server) handleInsights(c *gin.Context) {
	var req insightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid insights request"})
		return
	}

	prompt := agent.PreferenceQueryPrompt(req.Phone, req.EventSummary, req.EventLocation)
	queryReply, err := s.gateway.SendCached(c.Request.Context(), agent.KindPreferenceQuery, prompt, "")
	if err != nil {
		s.upstreamFailure(c, "Failed to get recommendations", err)
		return
	}

	response := gin.H{
		"recommendations": extract.Cards(s.gateway.ReplyText(queryReply)),
		"gifts":           []extract.Section{},
	}

	giftReply, err := s.sendGiftQuery(c, &giftRequest{Events: req.Events, Preferences: req.Preferences})
	if err != nil {
		// Gift ideas are best-effort; the recommendations still stand.
		s.logger.Warn("Gift query failed during insights: %v", err)
		response["warning"] = "Could not fetch gift ideas"
	} else {
		response["gifts"] = extract.Cards(s.gateway.ReplyText(giftReply))
	}

	c.JSON(http.StatusOK, response)
}

// upstreamFailure reports an agent call that never produced a usable reply.
func (s *Server) upstreamFailure(c *gin.Context, message string, err error) {
	s.logger.Error("%s: %v", message, err)
	c.JSON(http.StatusBadGateway, gin.H{
		"error":     message,
		"details":   err.Error(),
		"retryable": true,
	})
}
