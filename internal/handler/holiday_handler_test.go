package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lsa-api/internal/models"
	"github.com/noah-isme/lsa-api/internal/service"
)

type holidayStoreMock struct {
	holidays []models.Holiday
	created  []*models.Holiday
}

func (m *holidayStoreMock) ListMatchingScope(ctx context.Context, classID, branchID string) ([]models.Holiday, error) {
	return m.holidays, nil
}

func (m *holidayStoreMock) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, int, error) {
	return m.holidays, len(m.holidays), nil
}

func (m *holidayStoreMock) FindByID(ctx context.Context, id string) (*models.Holiday, error) {
	return nil, sql.ErrNoRows
}

func (m *holidayStoreMock) Create(ctx context.Context, holiday *models.Holiday) error {
	holiday.ID = "h-new"
	m.created = append(m.created, holiday)
	return nil
}

func (m *holidayStoreMock) Update(ctx context.Context, holiday *models.Holiday) error {
	return sql.ErrNoRows
}

func (m *holidayStoreMock) Delete(ctx context.Context, id string) error {
	return sql.ErrNoRows
}

func newHolidayHandler(store *holidayStoreMock) *HolidayHandler {
	return NewHolidayHandler(service.NewHolidayService(store, nil, nil))
}

func TestHolidayCheckExcludedDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newHolidayHandler(&holidayStoreMock{holidays: []models.Holiday{
		{
			ID:        "h1",
			Name:      "New Year",
			StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Scope:     models.HolidayScopeGlobal,
		},
	}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/holidays/check?classId=c1&branchId=b1&date=2025-01-01", nil)

	handler.Check(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"holiday":true`)
}

func TestHolidayCheckWorkingDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newHolidayHandler(&holidayStoreMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/holidays/check?classId=c1&branchId=b1&date=2025-01-02", nil)

	handler.Check(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"holiday":false`)
}

func TestHolidayCheckBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newHolidayHandler(&holidayStoreMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/holidays/check?classId=c1&branchId=b1&date=january", nil)

	handler.Check(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHolidayCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &holidayStoreMock{}
	handler := newHolidayHandler(store)
	payload := []byte(`{"name":"Spring break","startDate":"2025-03-10","endDate":"2025-03-14","scope":"global"}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/holidays", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.created, 1)
	require.Equal(t, "Spring break", store.created[0].Name)
}

func TestHolidayCreateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newHolidayHandler(&holidayStoreMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/holidays", bytes.NewReader([]byte(`{"name":`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHolidayCreateInvertedRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &holidayStoreMock{}
	handler := newHolidayHandler(store)
	payload := []byte(`{"name":"Backwards","startDate":"2025-03-14","endDate":"2025-03-10","scope":"global"}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/holidays", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, store.created)
}

func TestHolidayUpdateMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newHolidayHandler(&holidayStoreMock{})
	payload := []byte(`{"name":"Renamed","startDate":"2025-03-10","endDate":"2025-03-14","scope":"global"}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPut, "/holidays/ghost", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.Update(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
