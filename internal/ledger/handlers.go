package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zombor/fuel-ledger/internal/scanning"
)

const (
	maxPhotoSize = int64(50 << 20) // high-resolution phone photos
	maxTextSize  = int64(1 << 20)

	retryMessage = "The receipt could not be read. Please retake the photo in good light and try again."
)

// corsError writes a plain error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes {"error": message} with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleScan reads an uploaded receipt photo and returns a draft
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a photo to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxPhotoSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = scanning.ContentTypeFromFilename(header.Filename)
	}

	draft, err := s.service.ScanReceipt(header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error scanning receipt", "filename", header.Filename, "error", err)
		if errors.Is(err, ErrRecognition) {
			setCORSHeaders(w)
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error": retryMessage,
				"retry": true,
			})
			return
		}
		jsonError(w, "Error saving photo", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

// handleExtract runs the field extractor over a plain-text body
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTextSize))
	if err != nil {
		jsonError(w, "Text is too large or unreadable", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, s.service.Extract(string(body)))
}

// handleCreateRecord books a confirmed record
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var in RecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := s.service.CreateRecord(in)
	if err != nil {
		if errors.Is(err, ErrEmptyRecord) || errors.Is(err, ErrInvalidDate) || errors.Is(err, ErrInvalidAmount) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error creating record", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// handleListRecords returns the records of ?date=, or all of them
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListRecords(r.URL.Query().Get("date"))
	if err != nil {
		if errors.Is(err, ErrInvalidDate) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error listing records", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleGetRecord returns a single record
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := s.service.GetRecord(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			corsError(w, "Record not found", http.StatusNotFound)
			return
		}
		slog.Error("Error getting record", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleGetRecordPhoto returns the receipt photo of a record
func (s *Server) handleGetRecordPhoto(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetRecordPhoto(r.PathValue("id"))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("Error getting record photo", "error", err)
		}
		corsError(w, "Photo not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteRecord deletes a record
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteRecord(r.PathValue("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			corsError(w, "Record not found", http.StatusNotFound)
			return
		}
		slog.Error("Error deleting record", "error", err)
		corsError(w, "Error deleting record", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCalendar returns the month view for /api/calendar/{year}/{month}
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, yerr := strconv.Atoi(r.PathValue("year"))
	month, merr := strconv.Atoi(r.PathValue("month"))
	if yerr != nil || merr != nil {
		jsonError(w, "Year and month must be numbers", http.StatusBadRequest)
		return
	}

	view, err := s.service.MonthView(year, time.Month(month))
	if err != nil {
		if errors.Is(err, ErrInvalidDate) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error building month view", "year", year, "month", month, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// handleExport downloads every record as an indented JSON file
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.Export()
	if err != nil {
		slog.Error("Error exporting records", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		slog.Error("Error encoding export", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, "fuel-ledger-export.json"))
	w.Write(data)
}
