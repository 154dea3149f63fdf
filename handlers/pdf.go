package handlers

import (
	"net/http"
	"strings"

	"nardeboun-backend/internal/service"
	"nardeboun-backend/models"
	"nardeboun-backend/pkg/apperror"
	"nardeboun-backend/pkg/logger"
	"nardeboun-backend/pkg/response"

	"go.uber.org/zap"
)

// MaxUploadSize - upload-pdf file limit
const MaxUploadSize = 20 << 20

func CreateStepByStepPDF(svc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateStepByStepPDFRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		created, err := svc.CreateStepByStepPDF(r.Context(), &req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, models.StepByStepCreatedResponse{
			Success: true,
			Message: "گام‌به‌گام با موفقیت ایجاد شد",
			Data:    *created,
		})
	}
}

func CreateProvincialSamplePDF(svc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateProvincialSamplePDFRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		id, err := svc.CreateProvincialSamplePDF(r.Context(), &req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, models.PDFCreatedResponse{
			Success: true,
			Message: "PDF نمونه سوال استانی با موفقیت ایجاد شد",
			PDFID:   id,
		})
	}
}

func UpdatePDFContent(svc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdatePDFRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		pdf, err := svc.UpdatePDF(r.Context(), &req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, models.PDFUpdatedResponse{
			Success: true,
			Message: "PDF با موفقیت به‌روزرسانی شد",
			PDF:     pdf,
		})
	}
}

func DeletePDFContent(svc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.DeletePDFRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		if err := svc.DeletePDF(r.Context(), &req); err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, models.PDFDeletedResponse{
			Success:      true,
			Message:      "PDF با موفقیت حذف شد",
			DeletedPDFID: req.PDFID,
		})
	}
}

// UploadPDF godoc
// @Summary      Upload a lesson PDF
// @Description  multipart/form-data with file (max 20 MB), type (note|exercise), lesson_id and video_id
// @Tags         content
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  models.UploadPDFResponse
// @Failure      400,500  {object}  response.ErrorBody
// @Router       /functions/v1/upload-pdf [post]
func UploadPDF(svc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			response.Error(w, r, apperror.NewValidationError("Content-Type must be multipart/form-data"))
			return
		}

		// one extra MiB covers the other form fields and part headers
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)
		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			response.Error(w, r, apperror.NewValidationError("invalid multipart body or file larger than 20 MB"))
			return
		}
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				logger.Warn("failed to remove multipart temp files", zap.Error(err))
			}
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, r, apperror.NewValidationError("file is required"))
			return
		}
		defer file.Close()

		if header.Size > MaxUploadSize {
			response.Error(w, r, apperror.NewValidationError("file larger than 20 MB"))
			return
		}

		resp, err := svc.UploadPDF(r.Context(), service.UploadInput{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Type:        r.FormValue("type"),
			LessonID:    r.FormValue("lesson_id"),
			VideoID:     r.FormValue("video_id"),
			Body:        file,
		})
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, resp)
	}
}
