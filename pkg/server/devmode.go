package server

import (
	"context"
	"encoding/json"
	"net/http"

	"charitybot/pkg/logger"
)

func (s *Server) devModeActive() bool {
	return devModeAvailable && s.config.App.DevMode && s.preview != nil
}

type devRequest struct {
	Message string `json:"message"`
}

// handleDev answers a plain {"message": ...} request with the intermediate
// pipeline values. Nothing is posted to Slack.
func (s *Server) handleDev(ctx context.Context, w http.ResponseWriter, body []byte) {
	var req devRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Missing message field in request body",
			"example": devRequest{Message: "Please research Oxfam charity"},
		})
		return
	}

	res, err := s.preview(ctx, req.Message)
	if err != nil {
		logger.ErrorCF("webhook", "Dev mode preview failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   "Internal server error",
			"details": err.Error(),
		})
		return
	}

	if !res.Extracted() {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":       false,
			"error":         res.Failure,
			"message":       res.Message,
			"extractedName": nil,
		})
		return
	}

	if res.Failure != "" {
		resp := map[string]interface{}{
			"success":       false,
			"message":       res.Message,
			"extractedName": res.ExtractedName,
			"error":         res.Failure,
			"errorReport":   res.ErrorReport,
		}
		if res.Err != nil {
			resp["details"] = res.Err.Error()
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       res.Message,
		"extractedName": res.ExtractedName,
		"charityData":   res.Record,
		"report":        res.Report,
	})
}

// DevModeCompiled reports whether this binary was built with the devmode tag.
func DevModeCompiled() bool {
	return devModeAvailable
}
