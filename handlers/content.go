package handlers

import (
	"net/http"

	"nardeboun-backend/internal/service"
	"nardeboun-backend/models"
	"nardeboun-backend/pkg/response"
)

// CreateContent godoc
// @Summary      Create a lesson video with its hierarchy
// @Description  Finds or creates branch, grade, track, subject, offer, chapter and teacher, then upserts the lesson video
// @Tags         content
// @Accept       json
// @Produce      json
// @Param        request body models.CreateContentRequest true "content"
// @Success      200  {object}  models.ContentResponse
// @Failure      400,500  {object}  response.ErrorBody
// @Router       /functions/v1/create-content [post]
func CreateContent(svc *service.ContentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateContentRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		ids, err := svc.Create(r.Context(), &req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, models.ContentResponse{
			Success: true,
			Message: "محتوا با موفقیت ایجاد شد",
			Data:    ids,
		})
	}
}

func UpdateContent(svc *service.ContentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdateContentRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		video, err := svc.Update(r.Context(), &req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, models.ContentResponse{
			Success: true,
			Message: "ویدیو با موفقیت به‌روزرسانی شد",
			Data:    video,
		})
	}
}

func DeleteContent(svc *service.ContentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LessonVideoIDRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		if err := svc.Delete(r.Context(), &req); err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, models.ContentResponse{
			Success: true,
			Message: "ویدیو با موفقیت حذف شد",
			Data:    map[string]int64{"deleted_video_id": req.LessonVideoID},
		})
	}
}

// IncrementView - public view counter for active videos
func IncrementView(svc *service.ContentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LessonVideoIDRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		count, err := svc.IncrementView(r.Context(), &req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, models.ViewCountResponse{
			Success:   true,
			Message:   "بازدید با موفقیت افزایش یافت",
			ViewCount: count,
		})
	}
}

// CheckUpdates - per grade/track content totals for client cache invalidation
func CheckUpdates(svc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CheckUpdatesRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		resp, err := svc.CheckUpdates(r.Context(), &req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, resp)
	}
}
