package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/ErkanEron/melonotes/internal/model"
)

// maxUploadSize caps a single image upload at 5 MB.
const maxUploadSize = 5 << 20

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// uploadFilename builds a collision-free name: millisecond timestamp
// plus a slugified base name, extension preserved.
func uploadFilename(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = slug.Make(base)
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), base, ext)
}

// handleUpload stores a multipart image under the uploads directory.
// When a note_id form field is present the file is also recorded as an
// image attachment of that note.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Image too large or malformed upload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		writeError(w, http.StatusBadRequest, "Only image files are allowed")
		return
	}

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		s.log.Error().Err(err).Msg("failed to create uploads directory")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	filename := uploadFilename(header.Filename)
	dst, err := os.Create(filepath.Join(s.uploadsDir, filename))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create upload file")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		s.log.Error().Err(err).Msg("failed to write upload file")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if raw := r.FormValue("note_id"); raw != "" {
		noteID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid note id")
			return
		}
		if _, err := s.store.CreateImage(r.Context(), model.Image{
			NoteID:      noteID,
			Filename:    filename,
			Description: r.FormValue("description"),
		}); err != nil {
			s.writeStoreError(w, err, "Note not found", "")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"filename": filename,
		"url":      "/uploads/" + filename,
		"message":  "Image uploaded successfully",
	})
}
