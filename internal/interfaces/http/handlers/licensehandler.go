package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/licensegate/licensegate/internal/application/license/usecases"
	"github.com/licensegate/licensegate/internal/interfaces/http/middleware"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
	"github.com/licensegate/licensegate/internal/shared/utils"
	"github.com/licensegate/licensegate/internal/shared/utils/logutil"
)

// LicenseHandler serves the client protocol. Validate and verify-token
// answer with the bare result object so clients can check the signature
// over exactly what they received.
type LicenseHandler struct {
	validateUC   validateLicenseUseCase
	activateUC   activateLicenseUseCase
	deactivateUC deactivateLicenseUseCase
	infoUC       getLicenseInfoUseCase
	nonceUC      issueNonceUseCase
	verifyUC     verifyTokenUseCase
	logger       logger.Interface
}

func NewLicenseHandler(
	validateUC validateLicenseUseCase,
	activateUC activateLicenseUseCase,
	deactivateUC deactivateLicenseUseCase,
	infoUC getLicenseInfoUseCase,
	nonceUC issueNonceUseCase,
	verifyUC verifyTokenUseCase,
	logger logger.Interface,
) *LicenseHandler {
	return &LicenseHandler{
		validateUC:   validateUC,
		activateUC:   activateUC,
		deactivateUC: deactivateUC,
		infoUC:       infoUC,
		nonceUC:      nonceUC,
		verifyUC:     verifyUC,
		logger:       logger,
	}
}

type ValidateLicenseRequest struct {
	LicenseKey string   `json:"license_key" validate:"required,max=64"`
	Nonce      string   `json:"nonce" validate:"max=128"`
	Domain     string   `json:"domain" validate:"max=253"`
	MachineID  string   `json:"machine_id" validate:"max=255"`
	Hostname   string   `json:"hostname" validate:"max=255"`
	ProductID  StringID `json:"product_id"`
}

type MachineRequest struct {
	LicenseKey string `json:"license_key" validate:"required,max=64"`
	MachineID  string `json:"machine_id" validate:"required,max=255"`
	Hostname   string `json:"hostname" validate:"max=255"`
}

type VerifyTokenRequest struct {
	Token      string   `json:"token" validate:"required,hexadecimal"`
	LicenseKey string   `json:"license_key" validate:"required,max=64"`
	Valid      bool     `json:"valid"`
	Timestamp  int64    `json:"timestamp" validate:"required,gt=0"`
	Domain     string   `json:"domain"`
	MachineID  string   `json:"machine_id"`
	ProductID  StringID `json:"product_id"`
}

// Validate handles POST /licenses/validate. Business rejections are 200
// with valid:false.
func (h *LicenseHandler) Validate(c *gin.Context) {
	var req ValidateLicenseRequest
	if !h.bind(c, &req, "validate license") {
		return
	}

	result, err := h.validateUC.Execute(c.Request.Context(), usecases.ValidateLicenseCommand{
		LicenseKey: strings.TrimSpace(req.LicenseKey),
		Nonce:      req.Nonce,
		Domain:     req.Domain,
		MachineID:  req.MachineID,
		Hostname:   req.Hostname,
		ProductID:  string(req.ProductID),
		ClientIP:   c.ClientIP(),
		APIKey:     middleware.APIKeyFromContext(c),
	})
	if err != nil {
		h.logger.Warnw("license validation failed",
			"license_key", logutil.MaskLicenseKey(req.LicenseKey),
			"error", err,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Activate handles POST /licenses/activate.
func (h *LicenseHandler) Activate(c *gin.Context) {
	var req MachineRequest
	if !h.bind(c, &req, "activate license") {
		return
	}

	result, err := h.activateUC.Execute(c.Request.Context(), usecases.ActivateLicenseCommand{
		LicenseKey: strings.TrimSpace(req.LicenseKey),
		MachineID:  req.MachineID,
		Hostname:   req.Hostname,
		ClientIP:   c.ClientIP(),
		APIKey:     middleware.APIKeyFromContext(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	utils.SuccessResponse(c, status, result.Message, result)
}

// Deactivate handles POST /licenses/deactivate.
func (h *LicenseHandler) Deactivate(c *gin.Context) {
	var req MachineRequest
	if !h.bind(c, &req, "deactivate license") {
		return
	}

	result, err := h.deactivateUC.Execute(c.Request.Context(), usecases.DeactivateLicenseCommand{
		LicenseKey: strings.TrimSpace(req.LicenseKey),
		MachineID:  req.MachineID,
		ClientIP:   c.ClientIP(),
		APIKey:     middleware.APIKeyFromContext(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, result.Message, result)
}

// Info handles GET /licenses/info/:key. No credential required.
func (h *LicenseHandler) Info(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" || len(key) > 64 {
		utils.ErrorResponseWithError(c, errors.NewValidationError("Invalid license key"))
		return
	}

	info, err := h.infoUC.Execute(c.Request.Context(), key)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", info)
}

// IssueNonce handles POST /nonce.
func (h *LicenseHandler) IssueNonce(c *gin.Context) {
	result, err := h.nonceUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "", result)
}

// VerifyToken handles POST /licenses/verify-token. No credential required.
func (h *LicenseHandler) VerifyToken(c *gin.Context) {
	var req VerifyTokenRequest
	if !h.bind(c, &req, "verify token") {
		return
	}

	result := h.verifyUC.Execute(usecases.VerifyTokenCommand{
		Token:      req.Token,
		LicenseKey: req.LicenseKey,
		Valid:      req.Valid,
		Timestamp:  req.Timestamp,
		Domain:     req.Domain,
		MachineID:  req.MachineID,
		ProductID:  string(req.ProductID),
	})

	c.JSON(http.StatusOK, result)
}

func (h *LicenseHandler) bind(c *gin.Context, req any, op string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warnw("invalid request body for "+op, "error", err)
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("Invalid request body", err.Error()))
		return false
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return false
	}
	return true
}
