package handlers

import (
	"net/http"

	"nardeboun-backend/internal/service"
	"nardeboun-backend/models"
	"nardeboun-backend/pkg/response"
)

// CreateBanner godoc
// @Summary      Create a home screen banner
// @Description  title, image_url and a positive position are required; is_active defaults to true
// @Tags         banners
// @Accept       json
// @Produce      json
// @Param        request body models.CreateBannerRequest true "banner"
// @Success      200  {object}  models.BannerCreatedResponse
// @Failure      400,500  {object}  response.ErrorBody
// @Router       /functions/v1/create-banner [post]
func CreateBanner(svc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateBannerRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		banner, err := svc.CreateBanner(r.Context(), &req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, models.BannerCreatedResponse{
			Success:  true,
			Message:  "بنر با موفقیت ایجاد شد",
			BannerID: banner.ID,
		})
	}
}
