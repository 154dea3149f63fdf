package handlers

import (
	"encoding/json"
	"net/http"

	"nardeboun-backend/internal/service"
	"nardeboun-backend/models"
	"nardeboun-backend/pkg/apperror"
	"nardeboun-backend/pkg/response"
)

// decodeJSON reads the request body into v; a malformed body is a 400
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.NewValidationError("Invalid JSON body")
	}
	return nil
}

// SendOTP godoc
// @Summary      Send a one-time code
// @Description  Runs the ban gate and attempt limiter, stores a 4-digit code valid for one minute and sends it by SMS. devMode uses 0000 and skips the SMS.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body models.SendOTPRequest true "phone and device"
// @Success      200  {object}  models.SendOTPResponse
// @Failure      400,403,429,500  {object}  response.ErrorBody
// @Router       /functions/v1/send-otp [post]
func SendOTP(svc *service.OTPService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SendOTPRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		resp, err := svc.Issue(r.Context(), &req, clientIP(r))
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, resp)
	}
}

// VerifyOTP godoc
// @Summary      Verify a one-time code
// @Description  Consumes a valid code and returns the profile, creating it at step1 on first login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body models.VerifyOTPRequest true "phone and code"
// @Success      200  {object}  models.UserResponse
// @Failure      400,429,500  {object}  response.ErrorBody
// @Router       /functions/v1/verify-otp [post]
func VerifyOTP(svc *service.OTPService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.VerifyOTPRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		profile, err := svc.Verify(r.Context(), &req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, models.UserResponse{Success: true, User: profile})
	}
}

// UpdateProfile godoc
// @Summary      Advance registration or edit the profile
// @Description  step1 and step2 move the registration stage; update is limited to 40 changes per hour
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body models.UpdateProfileRequest true "phone, step and payload"
// @Success      200  {object}  models.UserResponse
// @Failure      400,404,429,500  {object}  response.ErrorBody
// @Router       /functions/v1/update-profile [post]
func UpdateProfile(svc *service.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		profile, err := svc.Update(r.Context(), &req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, models.UserResponse{Success: true, User: profile})
	}
}

// CreateBan - admin ban on a user, phone or device
func CreateBan(svc *service.BanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateBanRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		ban, err := svc.Create(r.Context(), &req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.OK(w, models.BanResponse{Success: true, Ban: ban})
	}
}
