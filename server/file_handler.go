package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"soundwave/logger"
	"soundwave/storage"

	"github.com/gorilla/mux"
)

// UploadFileResponse is returned by the file upload endpoints.
type UploadFileResponse struct {
	Success      bool   `json:"success"`
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
	ContentType  string `json:"contentType"`
}

// UploadAudioHandler handles POST /api/file/upload/audio.
func (h *APIHandler) UploadAudioHandler(w http.ResponseWriter, r *http.Request) {
	h.uploadFile(w, r, storage.KindAudio, storage.MaxAudioSize)
}

// UploadImageHandler handles POST /api/file/upload/image.
func (h *APIHandler) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	h.uploadFile(w, r, storage.KindImage, storage.MaxImageSize)
}

func (h *APIHandler) uploadFile(w http.ResponseWriter, r *http.Request, kind storage.Kind, maxSize int64) {
	// ParseMultipartForm's argument is only a memory threshold; the
	// MaxBytesReader is what bounds the request body. Slightly above the
	// ceiling so form fields and multipart framing still fit.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	ext, err := storage.ValidateUpload(kind, header.Filename, header.Size)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fileName := storage.NewFileName(ext)
	contentType := header.Header.Get("Content-Type")
	url, err := h.store.Save(r.Context(), kind, fileName, file, header.Size, contentType)
	if err != nil {
		logger.Error("failed to store uploaded file",
			logger.String("kind", string(kind)),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("file uploaded",
		logger.String("kind", string(kind)),
		logger.String("fileName", fileName),
		logger.Int64("size", header.Size))

	respondJSON(w, http.StatusOK, UploadFileResponse{
		Success:      true,
		FileName:     fileName,
		OriginalName: header.Filename,
		URL:          url,
		Size:         header.Size,
		ContentType:  contentType,
	})
}

// DeleteFileHandler handles DELETE /api/file/delete/{type}/{fileName}.
func (h *APIHandler) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	kind, err := storage.ParseKind(vars["type"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid file type. Use 'audio' or 'images'")
		return
	}

	fileName := vars["fileName"]
	if err := h.store.Delete(r.Context(), kind, fileName); err != nil {
		switch {
		case errors.Is(err, storage.ErrFileNotFound):
			respondError(w, http.StatusNotFound, "File not found")
		case errors.Is(err, storage.ErrInvalidFileName):
			respondError(w, http.StatusBadRequest, "Invalid file name")
		default:
			logger.Error("failed to delete file",
				logger.String("fileName", fileName),
				logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	logger.Info("file deleted",
		logger.String("kind", string(kind)),
		logger.String("fileName", fileName))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "File deleted successfully",
	})
}

// ServeUploadHandler serves uploaded media under /uploads/{type}/{fileName}
// from whichever store backs the deployment.
func (h *APIHandler) ServeUploadHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	kind, err := storage.ParseKind(vars["type"])
	if err != nil {
		respondError(w, http.StatusNotFound, "File not found")
		return
	}

	content, contentType, err := h.store.Open(r.Context(), kind, vars["fileName"])
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) || errors.Is(err, storage.ErrInvalidFileName) {
			respondError(w, http.StatusNotFound, "File not found")
			return
		}
		logger.Error("failed to open file", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", contentType)
	if n, err := io.Copy(w, content); err != nil {
		logger.Debug("interrupted file transfer",
			logger.String("fileName", vars["fileName"]),
			logger.String("sent", strconv.FormatInt(n, 10)),
			logger.ErrorField(err))
	}
}
