package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	apperrors "chairside/pkg/errors"
	"chairside/pkg/logger"
	"chairside/pkg/model"
)

type mockBookingService struct {
	createFunc            func(ctx context.Context, booking *model.Booking) error
	getAllFunc            func(ctx context.Context, startDate, endDate string) ([]*model.Booking, error)
	cancelFunc            func(ctx context.Context, id int) (*model.Booking, error)
	checkAvailabilityFunc func(ctx context.Context, date, timeSlot string) (*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, booking *model.Booking) error {
	return m.createFunc(ctx, booking)
}

func (m *mockBookingService) GetAll(ctx context.Context, startDate, endDate string) ([]*model.Booking, error) {
	return m.getAllFunc(ctx, startDate, endDate)
}

func (m *mockBookingService) Cancel(ctx context.Context, id int) (*model.Booking, error) {
	return m.cancelFunc(ctx, id)
}

func (m *mockBookingService) CheckAvailability(ctx context.Context, date, timeSlot string) (*model.Booking, error) {
	return m.checkAvailabilityFunc(ctx, date, timeSlot)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

func newTestRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, testLogger()).RegisterRoutes(router)
	return router
}

func sampleBooking() *model.Booking {
	return &model.Booking{
		ID:      1,
		Date:    "2026-09-15",
		Time:    "10:00",
		Name:    "Alex",
		Phone:   "555-1111",
		Service: "Haircut",
	}
}

func TestGetAll_EmptyLedgerReturnsEmptyArray(t *testing.T) {
	svc := &mockBookingService{
		getAllFunc: func(context.Context, string, string) ([]*model.Booking, error) {
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestGetAll_PassesRangeParams(t *testing.T) {
	var gotStart, gotEnd string
	svc := &mockBookingService{
		getAllFunc: func(_ context.Context, startDate, endDate string) ([]*model.Booking, error) {
			gotStart, gotEnd = startDate, endDate
			return []*model.Booking{sampleBooking()}, nil
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings?startDate=2026-09-01&endDate=2026-09-30", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotStart != "2026-09-01" || gotEnd != "2026-09-30" {
		t.Errorf("range = (%q, %q)", gotStart, gotEnd)
	}

	var bookings []*model.Booking
	if err := json.NewDecoder(rec.Body).Decode(&bookings); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(bookings) != 1 || bookings[0].ID != 1 {
		t.Errorf("bookings = %+v", bookings)
	}
}

func TestGetAll_StorageFailureMapsTo500(t *testing.T) {
	svc := &mockBookingService{
		getAllFunc: func(context.Context, string, string) ([]*model.Booking, error) {
			return nil, apperrors.Internal("Failed to retrieve bookings", io.ErrUnexpectedEOF)
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestCreate_Success(t *testing.T) {
	svc := &mockBookingService{
		createFunc: func(_ context.Context, booking *model.Booking) error {
			booking.ID = 12
			return nil
		},
	}
	router := newTestRouter(svc)

	body := `{"date":"2026-09-15","time":"10:00","name":"Alex","phone":"555-1111","service":"Haircut"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp CreateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Message != "Booking created successfully" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Booking == nil || resp.Booking.ID != 12 {
		t.Errorf("booking = %+v, want assigned ID 12", resp.Booking)
	}
}

func TestCreate_MalformedBodyReturns400(t *testing.T) {
	svc := &mockBookingService{
		createFunc: func(context.Context, *model.Booking) error {
			t.Fatal("service should not be called for a malformed body")
			return nil
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreate_ServiceErrorsMapToStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing field",
			serviceErr: apperrors.InvalidInput("Missing required field: service"),
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing required field: service",
		},
		{
			name:       "slot taken",
			serviceErr: apperrors.Conflict("This time slot is already booked"),
			wantStatus: http.StatusConflict,
			wantError:  "This time slot is already booked",
		},
		{
			name:       "storage failure",
			serviceErr: apperrors.Internal("Failed to create booking", io.ErrUnexpectedEOF),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to create booking",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				createFunc: func(context.Context, *model.Booking) error {
					return tt.serviceErr
				},
			}
			router := newTestRouter(svc)

			body := `{"date":"2026-09-15","time":"10:00","name":"Alex","phone":"555-1111","service":"Haircut"}`
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestCancel_Success(t *testing.T) {
	var gotID int
	svc := &mockBookingService{
		cancelFunc: func(_ context.Context, id int) (*model.Booking, error) {
			gotID = id
			return sampleBooking(), nil
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/bookings/42", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotID != 42 {
		t.Errorf("cancelled id = %d, want 42", gotID)
	}

	var resp CancelResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Message != "Booking cancelled successfully" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestCancel_UnknownIDReturns404(t *testing.T) {
	svc := &mockBookingService{
		cancelFunc: func(context.Context, int) (*model.Booking, error) {
			return nil, apperrors.NotFound("Booking not found")
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/bookings/99", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error != "Booking not found" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestCancel_NonNumericIDReturns404(t *testing.T) {
	svc := &mockBookingService{
		cancelFunc: func(context.Context, int) (*model.Booking, error) {
			t.Fatal("service should not be called for a non-numeric id")
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/bookings/abc", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCheck_FreeSlot(t *testing.T) {
	svc := &mockBookingService{
		checkAvailabilityFunc: func(context.Context, string, string) (*model.Booking, error) {
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings/check?date=2026-09-15&time=10:00", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp AvailabilityResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Available {
		t.Error("available = false, want true")
	}
	if resp.Booking != nil {
		t.Errorf("booking = %+v, want null", resp.Booking)
	}
}

func TestCheck_TakenSlotReturnsOccupant(t *testing.T) {
	svc := &mockBookingService{
		checkAvailabilityFunc: func(context.Context, string, string) (*model.Booking, error) {
			return sampleBooking(), nil
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings/check?date=2026-09-15&time=10:00", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp AvailabilityResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Available {
		t.Error("available = true, want false")
	}
	if resp.Booking == nil || resp.Booking.ID != 1 {
		t.Errorf("booking = %+v, want occupant with ID 1", resp.Booking)
	}
}

func TestCheck_MissingParamsReturn400(t *testing.T) {
	svc := &mockBookingService{
		checkAvailabilityFunc: func(_ context.Context, date, timeSlot string) (*model.Booking, error) {
			if date == "" || timeSlot == "" {
				return nil, apperrors.InvalidInput("Date and time are required")
			}
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	for _, target := range []string{
		"/api/bookings/check",
		"/api/bookings/check?date=2026-09-15",
		"/api/bookings/check?time=10:00",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", target, rec.Code, http.StatusBadRequest)
		}
	}
}
