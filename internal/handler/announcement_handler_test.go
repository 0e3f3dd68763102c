package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hsms-project/hsms-api/internal/models"
	"github.com/hsms-project/hsms-api/internal/service"
	"github.com/hsms-project/hsms-api/pkg/response"
)

type announcementRepoStub struct {
	items map[string]*models.Announcement
	list  []models.Announcement
}

func (s *announcementRepoStub) ListActive(ctx context.Context, date string) ([]models.Announcement, error) {
	return s.list, nil
}

func (s *announcementRepoStub) ListAll(ctx context.Context) ([]models.Announcement, error) {
	return s.list, nil
}

func (s *announcementRepoStub) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	if announcement, ok := s.items[id]; ok {
		cp := *announcement
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *announcementRepoStub) Create(ctx context.Context, announcement *models.Announcement) error {
	if s.items == nil {
		s.items = make(map[string]*models.Announcement)
	}
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	cp := *announcement
	s.items[announcement.ID] = &cp
	return nil
}

func (s *announcementRepoStub) Update(ctx context.Context, announcement *models.Announcement) (int64, error) {
	if _, ok := s.items[announcement.ID]; !ok {
		return 0, nil
	}
	cp := *announcement
	s.items[announcement.ID] = &cp
	return 1, nil
}

func (s *announcementRepoStub) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := s.items[id]; !ok {
		return 0, nil
	}
	delete(s.items, id)
	return 1, nil
}

type teacherDirectoryStub struct {
	known map[string]bool
}

func (s *teacherDirectoryStub) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.known[username], nil
}

func newTestHandler(repo *announcementRepoStub, known map[string]bool) *AnnouncementHandler {
	svc := service.NewAnnouncementService(repo, &teacherDirectoryStub{known: known}, nil, validator.New(), zap.NewNop())
	return NewAnnouncementHandler(svc)
}

func TestAnnouncementHandlerListActive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &announcementRepoStub{
		list: []models.Announcement{{ID: uuid.NewString(), Message: "Exam Friday", ExpirationDate: "2025-12-31", CreatedBy: "t1", CreatedAt: time.Now()}},
	}
	handler := newTestHandler(repo, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/announcements/active", nil)
	c.Request = req

	handler.ListActive(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 1)
}

func TestAnnouncementHandlerListRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestHandler(&announcementRepoStub{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/announcements", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnnouncementHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &announcementRepoStub{}
	handler := newTestHandler(repo, map[string]bool{"t1": true})

	payload, _ := json.Marshal(service.CreateAnnouncementRequest{
		Message:        "Exam Friday",
		ExpirationDate: "2025-12-31",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/announcements?teacher_username=t1", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	record, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "t1", record["created_by"])
	assert.NotEmpty(t, record["id"])
}

func TestAnnouncementHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestHandler(&announcementRepoStub{}, map[string]bool{"t1": true})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/announcements?teacher_username=t1", bytes.NewBufferString(`{"message":"x"`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnnouncementHandlerUpdateNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestHandler(&announcementRepoStub{}, map[string]bool{"t1": true})

	payload, _ := json.Marshal(service.UpdateAnnouncementRequest{
		Message:        "Exam moved",
		ExpirationDate: "2025-12-31",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/announcements/"+uuid.NewString()+"?teacher_username=t1", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}

	handler.Update(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnnouncementHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	id := uuid.NewString()
	repo := &announcementRepoStub{
		items: map[string]*models.Announcement{
			id: {ID: id, Message: "Exam Friday", ExpirationDate: "2025-12-31", CreatedBy: "t1"},
		},
	}
	handler := newTestHandler(repo, map[string]bool{"t1": true})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/announcements/"+id+"?teacher_username=t1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: id}}

	handler.Delete(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	record, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "announcement deleted successfully", record["message"])
	assert.Empty(t, repo.items)
}

func TestAnnouncementHandlerDeleteWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestHandler(&announcementRepoStub{}, map[string]bool{"t1": true})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/announcements/"+uuid.NewString(), nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}

	handler.Delete(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
