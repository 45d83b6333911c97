package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/influenta/switchboard/internal/db"
	"github.com/influenta/switchboard/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDashTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	gdb := openDashTestDB(t)
	registerRoutes(router, gdb)
	return router, gdb
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{DB: nil})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
	if !strings.Contains(err.Error(), "db is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db is required")
	}
}

func TestHealthz(t *testing.T) {
	router, _ := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestTicketsEndpoint(t *testing.T) {
	router, gdb := testRouter(t)
	now := time.Now()
	closed := now.Add(-time.Hour)
	seed := []models.Ticket{
		{UserID: 42, DisplayName: "Dana", Body: "open one", Status: models.TicketOpen, CreatedAt: now},
		{UserID: 43, DisplayName: "Lee", Body: "closed one", Status: models.TicketClosed, CreatedAt: now.Add(-2 * time.Hour), ClosedAt: &closed},
	}
	for i := range seed {
		if err := gdb.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed ticket: %v", err)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tickets", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Tickets []TicketRow `json:"tickets"`
		Count   int         `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Tickets[0].Body != "open one" {
		t.Errorf("default filter returned %+v", resp)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tickets?status=all", nil))
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("status=all returned %d tickets", resp.Count)
	}
}

func TestTicketDetailEndpoint(t *testing.T) {
	router, gdb := testRouter(t)
	ticket := models.Ticket{UserID: 42, DisplayName: "Dana", Body: "detail me", Status: models.TicketOpen, CreatedAt: time.Now()}
	if err := gdb.Create(&ticket).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tickets/1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "detail me") {
		t.Errorf("body = %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tickets/999", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing ticket status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tickets/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router, gdb := testRouter(t)
	users := []models.User{
		{PlatformID: 1, Role: models.RoleBlogger, FirstName: "A", IsActive: true},
		{PlatformID: 2, Role: models.RoleBlogger, FirstName: "B", IsActive: true},
		{PlatformID: 3, Role: models.RoleAdvertiser, FirstName: "C", IsActive: true},
	}
	for i := range users {
		if err := gdb.Create(&users[i]).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var stats Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Bloggers != 2 || stats.Advertisers != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestFAQEndpoint(t *testing.T) {
	router, gdb := testRouter(t)
	entries := []models.FAQEntry{
		{Question: "Second?", Answer: "b", Priority: 20, Active: true},
		{Question: "First?", Answer: "a", Priority: 10, Active: true},
	}
	for i := range entries {
		if err := gdb.Create(&entries[i]).Error; err != nil {
			t.Fatalf("seed faq: %v", err)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/faq", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		FAQ []FAQRow `json:"faq"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.FAQ) != 2 || resp.FAQ[0].Question != "First?" {
		t.Errorf("faq order = %+v", resp.FAQ)
	}
}
