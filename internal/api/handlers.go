// internal/api/handlers.go
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	commonerrors "loan-intake/internal/common/errors"
	"loan-intake/internal/intake/verification"
)

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type panRequest struct {
	SessionID string `json:"sessionId"`
	PAN       string `json:"pan"`
}

type aadhaarRequest struct {
	SessionID string `json:"sessionId"`
	Aadhaar   string `json:"aadhaar"`
	OTP       string `json:"otp"`
}

type loanOptionsRequest struct {
	SessionID string `json:"sessionId"`
	Schedule  bool   `json:"schedule"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, chatSchema, &req, false); err != nil {
		s.respondError(w, r, err)
		return
	}

	resp, err := s.svc.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyPAN(w http.ResponseWriter, r *http.Request) {
	var req panRequest
	if err := decodeBody(w, r, panSchema, &req, false); err != nil {
		s.respondError(w, r, err)
		return
	}

	resp, err := s.svc.VerifyPAN(r.Context(), req.SessionID, req.PAN)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyAadhaar(w http.ResponseWriter, r *http.Request) {
	var req aadhaarRequest
	if err := decodeBody(w, r, aadhaarSchema, &req, false); err != nil {
		s.respondError(w, r, err)
		return
	}

	resp, err := s.svc.VerifyAadhaar(r.Context(), req.SessionID, req.Aadhaar, req.OTP)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleUploadDocument takes a multipart form with "file" and "sessionId".
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+maxBodyBytes)
	if err := r.ParseMultipartForm(limit); err != nil {
		s.respondError(w, r, commonerrors.NewInvalidRequestError("Invalid upload", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			s.respondError(w, r, commonerrors.NewDocumentMissingError())
			return
		}
		s.respondError(w, r, commonerrors.NewInvalidRequestError("Invalid upload", err.Error()))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, commonerrors.NewInvalidRequestError("Invalid upload", err.Error()))
		return
	}

	resp, err := s.svc.UploadDocument(r.Context(), r.FormValue("sessionId"), verification.Document{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRunFraud(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(w, r, sessionSchema, &req, false); err != nil {
		s.respondError(w, r, err)
		return
	}

	resp, err := s.svc.RunFraud(r.Context(), req.SessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleLoanOptions accepts the schedule flag in the body or as ?schedule=true.
func (s *Server) handleLoanOptions(w http.ResponseWriter, r *http.Request) {
	var req loanOptionsRequest
	if err := decodeBody(w, r, loanOptionsSchema, &req, false); err != nil {
		s.respondError(w, r, err)
		return
	}
	if q := r.URL.Query().Get("schedule"); q != "" {
		if v, err := strconv.ParseBool(q); err == nil {
			req.Schedule = v
		}
	}

	resp, err := s.svc.LoanOptions(r.Context(), req.SessionID, req.Schedule)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerateSanction(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(w, r, sessionSchema, &req, false); err != nil {
		s.respondError(w, r, err)
		return
	}

	resp, err := s.svc.GenerateSanction(r.Context(), req.SessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleDownloadSanction serves the letter as a text attachment.
func (s *Server) handleDownloadSanction(w http.ResponseWriter, r *http.Request) {
	filename, text, err := s.svc.SanctionDownload(r.Context(), r.URL.Query().Get("sessionId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Session(chi.URLParam(r, "sessionId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(w, r, resetSchema, &req, true); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.svc.Reset(req.SessionID))
}
