package handlers

import (
	"errors"
	"io"
	"net/http"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/services"
	"gym_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BillHandler holds the bill and invoice services.
type BillHandler struct {
	billService    services.BillService
	invoiceService services.InvoiceService
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(bs services.BillService, is services.InvoiceService) *BillHandler {
	return &BillHandler{billService: bs, invoiceService: is}
}

// cleanupMultipart removes any temp files spilled to disk while parsing the
// upload. Deferred on every multipart handler so cleanup happens whether or not
// the save succeeds.
func cleanupMultipart(c *gin.Context) {
	if c.Request.MultipartForm == nil {
		return
	}
	if err := c.Request.MultipartForm.RemoveAll(); err != nil {
		utils.LogError(err, "Failed to remove multipart temp files")
	}
}

// readProfilePicture extracts the optional profilePicture upload. A missing file
// is not an error.
func readProfilePicture(c *gin.Context) (*models.ProfilePicture, error) {
	fileHeader, err := c.FormFile("profilePicture")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return &models.ProfilePicture{
		Data:        data,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}, nil
}

// CreateBill handles the multipart creation of a new gym bill.
func (h *BillHandler) CreateBill(c *gin.Context) {
	defer cleanupMultipart(c)

	var req services.CreateBillRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.LogError(err, "CreateBill: Failed to bind form")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	picture, err := readProfilePicture(c)
	if err != nil {
		utils.LogError(err, "CreateBill: Failed to read profile picture")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid profile picture upload.", err.Error()))
		return
	}

	bill, err := h.billService.CreateBill(c.Request.Context(), req, picture)
	if err != nil {
		utils.LogError(err, "CreateBill: Error from billService.CreateBill")
		if errors.Is(err, services.ErrEmptyPayload) || errors.Is(err, services.ErrMemberIDRequired) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Member ID is required.", err.Error()))
		} else if errors.Is(err, services.ErrMemberIDExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeConflict, "Member ID already exists.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create gym bill.", err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Gym bill created successfully",
		"memberId": bill.MemberID,
		"data":     bill,
	})
}

// GetBills handles fetching all bills, newest-first, with the derived
// totalPaidIncludingRenewals projection attached to each record.
func (h *BillHandler) GetBills(c *gin.Context) {
	bills, err := h.billService.GetBills(c.Request.Context())
	if err != nil {
		utils.LogError(err, "GetBills: Error from billService.GetBills")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch bills.", err.Error()))
		return
	}
	c.JSON(http.StatusOK, bills)
}

// GetBillImage streams the stored profile picture with long-lived cache headers.
func (h *BillHandler) GetBillImage(c *gin.Context) {
	bill, err := h.billService.GetBillByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondBillError(c, err, "GetBillImage")
		return
	}

	if bill.ProfilePicture == nil || len(bill.ProfilePicture.Data) == 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Image not found.", ""))
		return
	}

	// Pictures are immutable once attached, so a year-long cache is safe.
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Data(http.StatusOK, bill.ProfilePicture.ContentType, bill.ProfilePicture.Data)
}

// DownloadInvoice renders the bill as a PDF and streams it for download.
func (h *BillHandler) DownloadInvoice(c *gin.Context) {
	bill, err := h.billService.GetBillByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondBillError(c, err, "DownloadInvoice")
		return
	}

	pdfBytes, err := h.invoiceService.RenderInvoice(bill)
	if err != nil {
		utils.LogError(err, "DownloadInvoice: Error from invoiceService.RenderInvoice")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to render invoice.", err.Error()))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoice-`+bill.MemberID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// UpdateBill handles the multipart general edit of a bill.
func (h *BillHandler) UpdateBill(c *gin.Context) {
	defer cleanupMultipart(c)

	var req services.UpdateBillRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.LogError(err, "UpdateBill: Failed to bind form")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	picture, err := readProfilePicture(c)
	if err != nil {
		utils.LogError(err, "UpdateBill: Failed to read profile picture")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid profile picture upload.", err.Error()))
		return
	}

	bill, err := h.billService.UpdateBill(c.Request.Context(), c.Param("id"), req, picture)
	if err != nil {
		h.respondBillError(c, err, "UpdateBill")
		return
	}
	c.JSON(http.StatusOK, bill)
}

// RenewBill appends a renewal snapshot and resets the current membership terms.
func (h *BillHandler) RenewBill(c *gin.Context) {
	var req services.RenewBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "RenewBill: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	bill, err := h.billService.RenewBill(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondBillError(c, err, "RenewBill")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Membership renewed successfully",
		"data":    bill,
	})
}

// EditRenewalEntry replaces a renewal snapshot wholesale. A non-matching entry
// id reports success with matchedCount 0 rather than failing.
func (h *BillHandler) EditRenewalEntry(c *gin.Context) {
	var req services.RenewalEntryUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "EditRenewalEntry: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	matched, modified, err := h.billService.EditRenewalEntry(c.Request.Context(), c.Param("clientId"), c.Param("renewId"), req)
	if err != nil {
		h.respondBillError(c, err, "EditRenewalEntry")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Renewal entry updated",
		"matchedCount":  matched,
		"modifiedCount": modified,
	})
}

// DeleteRenewalEntry removes a renewal snapshot from an existing bill.
func (h *BillHandler) DeleteRenewalEntry(c *gin.Context) {
	bill, err := h.billService.DeleteRenewalEntry(c.Request.Context(), c.Param("clientId"), c.Param("renewId"))
	if err != nil {
		h.respondBillError(c, err, "DeleteRenewalEntry")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Renewal entry deleted",
		"data":    bill,
	})
}

// DeleteBill hard-removes a bill. Followups referencing it are untouched.
func (h *BillHandler) DeleteBill(c *gin.Context) {
	if err := h.billService.DeleteBill(c.Request.Context(), c.Param("id")); err != nil {
		h.respondBillError(c, err, "DeleteBill")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

// RecordPayment stores caller-supplied amountPaid/balance, appends one payment
// entry, and schedules a followup when a follow-up date is present.
func (h *BillHandler) RecordPayment(c *gin.Context) {
	var req services.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "RecordPayment: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	bill, err := h.billService.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondBillError(c, err, "RecordPayment")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment updated successfully",
		"data":    bill,
	})
}

// respondBillError maps bill service errors onto the API error taxonomy.
func (h *BillHandler) respondBillError(c *gin.Context, err error, operation string) {
	utils.LogError(err, operation+": Error from billService")
	if errors.Is(err, services.ErrInvalidBillID) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid bill ID format.", err.Error()))
	} else if errors.Is(err, services.ErrBillNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client not found.", err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Operation failed.", err.Error()))
	}
}
