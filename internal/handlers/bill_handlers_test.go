package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeBillService is a function-field stub for the bill service.
type fakeBillService struct {
	createBillFn         func(ctx context.Context, req services.CreateBillRequest, picture *models.ProfilePicture) (*models.GymBill, error)
	getBillsFn           func(ctx context.Context) ([]models.BillWithTotal, error)
	getBillByIDFn        func(ctx context.Context, id string) (*models.GymBill, error)
	updateBillFn         func(ctx context.Context, id string, req services.UpdateBillRequest, picture *models.ProfilePicture) (*models.GymBill, error)
	renewBillFn          func(ctx context.Context, id string, req services.RenewBillRequest) (*models.GymBill, error)
	editRenewalEntryFn   func(ctx context.Context, clientID, renewID string, req services.RenewalEntryUpdate) (int64, int64, error)
	deleteRenewalEntryFn func(ctx context.Context, clientID, renewID string) (*models.GymBill, error)
	deleteBillFn         func(ctx context.Context, id string) error
	recordPaymentFn      func(ctx context.Context, id string, req services.PaymentRequest) (*models.GymBill, error)
}

func (f *fakeBillService) CreateBill(ctx context.Context, req services.CreateBillRequest, picture *models.ProfilePicture) (*models.GymBill, error) {
	return f.createBillFn(ctx, req, picture)
}

func (f *fakeBillService) GetBills(ctx context.Context) ([]models.BillWithTotal, error) {
	return f.getBillsFn(ctx)
}

func (f *fakeBillService) GetBillByID(ctx context.Context, id string) (*models.GymBill, error) {
	return f.getBillByIDFn(ctx, id)
}

func (f *fakeBillService) UpdateBill(ctx context.Context, id string, req services.UpdateBillRequest, picture *models.ProfilePicture) (*models.GymBill, error) {
	return f.updateBillFn(ctx, id, req, picture)
}

func (f *fakeBillService) RenewBill(ctx context.Context, id string, req services.RenewBillRequest) (*models.GymBill, error) {
	return f.renewBillFn(ctx, id, req)
}

func (f *fakeBillService) EditRenewalEntry(ctx context.Context, clientID, renewID string, req services.RenewalEntryUpdate) (int64, int64, error) {
	return f.editRenewalEntryFn(ctx, clientID, renewID, req)
}

func (f *fakeBillService) DeleteRenewalEntry(ctx context.Context, clientID, renewID string) (*models.GymBill, error) {
	return f.deleteRenewalEntryFn(ctx, clientID, renewID)
}

func (f *fakeBillService) DeleteBill(ctx context.Context, id string) error {
	return f.deleteBillFn(ctx, id)
}

func (f *fakeBillService) RecordPayment(ctx context.Context, id string, req services.PaymentRequest) (*models.GymBill, error) {
	return f.recordPaymentFn(ctx, id, req)
}

type fakeInvoiceService struct {
	renderFn func(bill *models.GymBill) ([]byte, error)
}

func (f *fakeInvoiceService) RenderInvoice(bill *models.GymBill) ([]byte, error) {
	return f.renderFn(bill)
}

func newBillTestRouter(svc services.BillService, invoices services.InvoiceService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewBillHandler(svc, invoices)

	bills := engine.Group("/api/v1/bills")
	bills.POST("", h.CreateBill)
	bills.GET("", h.GetBills)
	bills.GET("/image/:id", h.GetBillImage)
	bills.GET("/invoice/:id", h.DownloadInvoice)
	bills.PUT("/renew/:id", h.RenewBill)
	bills.PUT("/renew/edit/:clientId/:renewId", h.EditRenewalEntry)
	bills.DELETE("/renew/delete/:clientId/:renewId", h.DeleteRenewalEntry)
	bills.PUT("/payment/:id", h.RecordPayment)
	bills.PUT("/:id", h.UpdateBill)
	bills.DELETE("/:id", h.DeleteBill)
	return engine
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestCreateBill_Success(t *testing.T) {
	svc := &fakeBillService{
		createBillFn: func(ctx context.Context, req services.CreateBillRequest, picture *models.ProfilePicture) (*models.GymBill, error) {
			assert.Equal(t, "GYM-001", req.MemberID)
			return &models.GymBill{ID: primitive.NewObjectID(), MemberID: req.MemberID}, nil
		},
	}
	router := newBillTestRouter(svc, &fakeInvoiceService{})

	body, contentType := multipartBody(t, map[string]string{"memberId": "GYM-001", "client": "Arun"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Gym bill created successfully", resp["message"])
	assert.Equal(t, "GYM-001", resp["memberId"])
}

func TestCreateBill_DuplicateMemberID(t *testing.T) {
	svc := &fakeBillService{
		createBillFn: func(ctx context.Context, req services.CreateBillRequest, picture *models.ProfilePicture) (*models.GymBill, error) {
			return nil, services.ErrMemberIDExists
		},
	}
	router := newBillTestRouter(svc, &fakeInvoiceService{})

	body, contentType := multipartBody(t, map[string]string{"memberId": "GYM-001"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
}

func TestCreateBill_MissingMemberID(t *testing.T) {
	svc := &fakeBillService{
		createBillFn: func(ctx context.Context, req services.CreateBillRequest, picture *models.ProfilePicture) (*models.GymBill, error) {
			return nil, services.ErrMemberIDRequired
		},
	}
	router := newBillTestRouter(svc, &fakeInvoiceService{})

	body, contentType := multipartBody(t, map[string]string{"client": "Arun"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_FAILED")
}

func TestGetBills_ReturnsArray(t *testing.T) {
	svc := &fakeBillService{
		getBillsFn: func(ctx context.Context) ([]models.BillWithTotal, error) {
			return []models.BillWithTotal{
				{GymBill: models.GymBill{MemberID: "GYM-002"}, TotalPaidIncludingRenewals: 175},
			}, nil
		},
	}
	router := newBillTestRouter(svc, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalPaidIncludingRenewals":175`)
}

func TestGetBillImage_ServesBytesWithCacheHeader(t *testing.T) {
	imageBytes := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	svc := &fakeBillService{
		getBillByIDFn: func(ctx context.Context, id string) (*models.GymBill, error) {
			return &models.GymBill{
				ProfilePicture: &models.ProfilePicture{Data: imageBytes, ContentType: "image/jpeg"},
			}, nil
		},
	}
	router := newBillTestRouter(svc, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills/image/"+primitive.NewObjectID().Hex(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000", w.Header().Get("Cache-Control"))
	assert.Equal(t, imageBytes, w.Body.Bytes())
}

func TestGetBillImage_NoPicture(t *testing.T) {
	svc := &fakeBillService{
		getBillByIDFn: func(ctx context.Context, id string) (*models.GymBill, error) {
			return &models.GymBill{}, nil
		},
	}
	router := newBillTestRouter(svc, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills/image/"+primitive.NewObjectID().Hex(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadInvoice_StreamsPDF(t *testing.T) {
	svc := &fakeBillService{
		getBillByIDFn: func(ctx context.Context, id string) (*models.GymBill, error) {
			return &models.GymBill{MemberID: "GYM-001"}, nil
		},
	}
	invoices := &fakeInvoiceService{
		renderFn: func(bill *models.GymBill) ([]byte, error) {
			return []byte("%PDF-1.4 fake"), nil
		},
	}
	router := newBillTestRouter(svc, invoices)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills/invoice/"+primitive.NewObjectID().Hex(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice-GYM-001.pdf")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestRenewBill_NotFound(t *testing.T) {
	svc := &fakeBillService{
		renewBillFn: func(ctx context.Context, id string, req services.RenewBillRequest) (*models.GymBill, error) {
			return nil, services.ErrBillNotFound
		},
	}
	router := newBillTestRouter(svc, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/bills/renew/"+primitive.NewObjectID().Hex(),
		strings.NewReader(`{"package":"Quarterly","price":"2000"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRenewBill_Success(t *testing.T) {
	svc := &fakeBillService{
		renewBillFn: func(ctx context.Context, id string, req services.RenewBillRequest) (*models.GymBill, error) {
			assert.Equal(t, 2000.0, req.Price.Float64())
			return &models.GymBill{Status: models.StatusActive}, nil
		},
	}
	router := newBillTestRouter(svc, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/bills/renew/"+primitive.NewObjectID().Hex(),
		strings.NewReader(`{"package":"Quarterly","price":"2000"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Membership renewed successfully")
}

func TestEditRenewalEntry_ReportsCountsOnMiss(t *testing.T) {
	svc := &fakeBillService{
		editRenewalEntryFn: func(ctx context.Context, clientID, renewID string, req services.RenewalEntryUpdate) (int64, int64, error) {
			return 0, 0, nil
		},
	}
	router := newBillTestRouter(svc, &fakeInvoiceService{})

	url := "/api/v1/bills/renew/edit/" + primitive.NewObjectID().Hex() + "/" + primitive.NewObjectID().Hex()
	req := httptest.NewRequest(http.MethodPut, url, strings.NewReader(`{"package":"Annual"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(0), resp["matchedCount"])
	assert.Equal(t, float64(0), resp["modifiedCount"])
}

func TestDeleteBill_InvalidID(t *testing.T) {
	svc := &fakeBillService{
		deleteBillFn: func(ctx context.Context, id string) error {
			return services.ErrInvalidBillID
		},
	}
	router := newBillTestRouter(svc, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bills/bogus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordPayment_Success(t *testing.T) {
	svc := &fakeBillService{
		recordPaymentFn: func(ctx context.Context, id string, req services.PaymentRequest) (*models.GymBill, error) {
			assert.Equal(t, 500.0, req.AmountPaid.Float64())
			assert.Equal(t, "2026-09-06", req.FollowUpDate)
			return &models.GymBill{AmountPaid: 500}, nil
		},
	}
	router := newBillTestRouter(svc, &fakeInvoiceService{})

	payload := `{"amountPaid":500,"balance":250,"paymentHistory":{"amount":200,"mode":"UPI"},"followUpDate":"2026-09-06"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/bills/payment/"+primitive.NewObjectID().Hex(),
		strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Payment updated successfully")
}
