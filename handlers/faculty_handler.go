package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/faculty-games/services"
)

const maxLogoUploadBytes = 32 << 20

type FacultyHandler struct {
	facultyService services.FacultyService
}

func NewFacultyHandler(fs services.FacultyService) *FacultyHandler {
	return &FacultyHandler{facultyService: fs}
}

func (h *FacultyHandler) ListFaculties(w http.ResponseWriter, r *http.Request) {
	faculties, err := h.facultyService.ListFaculties(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err = writeJSON(w, http.StatusOK, jsonResponse{"faculties": faculties}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FacultyHandler) GetFaculty(w http.ResponseWriter, r *http.Request) {
	facultyID, err := getIDFromURL(r, "facultyID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	faculty, err := h.facultyService.GetFaculty(r.Context(), facultyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err = writeJSON(w, http.StatusOK, jsonResponse{"faculty": faculty}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadLogo принимает multipart-форму с полем "logo".
func (h *FacultyHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	facultyID, err := getIDFromURL(r, "facultyID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxLogoUploadBytes)
	if err = r.ParseMultipartForm(maxLogoUploadBytes); err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			badRequestResponse(w, r, errors.New("logo file is required"))
			return
		}
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	faculty, err := h.facultyService.UploadFacultyLogo(r.Context(), facultyID, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err = writeJSON(w, http.StatusOK, jsonResponse{"faculty": faculty}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
