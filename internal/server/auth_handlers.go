package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"otto/internal/auth"
	"otto/internal/jsonx"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Name, email, and password are required"})
		return
	}

	rows := []map[string]any{{
		"full_name": req.Name,
		"email":     req.Email,
		"phone":     req.Phone,
		"password":  req.Password,
	}}

	created, err := s.auth.Signup(c.Request.Context(), rows)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateUser) {
			c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
			return
		}
		s.logger.Error("Signup failed for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Signup failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    created,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		return
	}

	result, err := s.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.logger.Error("Login request failed for %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed", "details": err.Error()})
		return
	}
	if !result.Succeeded() {
		message := result.Message
		if message == "" {
			message = "Login failed"
		}
		c.JSON(http.StatusUnauthorized, gin.H{"message": message})
		return
	}

	response := gin.H{
		"message":     "Login successful",
		"user":        gin.H{"email": req.Username},
		"preferences": nil,
	}

	profile, err := s.auth.FetchProfile(c.Request.Context(), req.Username)
	switch {
	case err == nil:
		response["user"] = gin.H{
			"name":  profile.Name(),
			"email": profile.UserProfile["email"],
			"phone": profile.UserProfile["phone"],
		}
		response["preferences"] = profile
	case errors.Is(err, auth.ErrProfileNotFound):
		// Login stands even without a directory row.
	default:
		s.logger.Warn("Profile fetch failed for %s: %v", req.Username, err)
		response["warning"] = "Could not fetch user profile"
	}

	if rec, err := s.sessions.Create(req.Username); err != nil {
		s.logger.Warn("Failed to create session for %s: %v", req.Username, err)
	} else {
		if profile != nil {
			if data, merr := jsonx.Marshal(profile); merr == nil {
				rec.Preferences = data
				if serr := s.sessions.Save(rec); serr != nil {
					s.logger.Warn("Failed to persist session %s: %v", rec.ID, serr)
				}
			}
		}
		response["session_id"] = rec.ID
	}

	c.JSON(http.StatusOK, response)
}

type profileRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is required"})
		return
	}

	profile, err := s.auth.FetchProfile(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User profile not found"})
			return
		}
		s.logger.Error("Profile fetch failed for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch user profile", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleGetSession(c *gin.Context) {
	rec, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}
