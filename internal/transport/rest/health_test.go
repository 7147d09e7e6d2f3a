package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "REST Transport Suite")
}

var _ = Describe("HealthHandler", func() {
	var handler *HealthHandler

	BeforeEach(func() {
		gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).ToNot(HaveOccurred())
		sqlDB, err := gormDB.DB()
		Expect(err).ToNot(HaveOccurred())
		handler = NewHealthHandler(sqlDB)
	})

	It("should answer liveness unconditionally", func() {
		rec := httptest.NewRecorder()
		handler.pingHandler(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		var body map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["status"]).To(Equal("OK"))
	})

	It("should report healthy while the database is reachable", func() {
		rec := httptest.NewRecorder()
		handler.healthCheckHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		var body healthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Status).To(Equal("healthy"))
		Expect(body.Components["database"].Healthy).To(BeTrue())
	})

	It("should report unhealthy with 503 once the database is gone", func() {
		gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).ToNot(HaveOccurred())
		sqlDB, err := gormDB.DB()
		Expect(err).ToNot(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
		closed := NewHealthHandler(sqlDB)

		rec := httptest.NewRecorder()
		closed.healthCheckHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		var body healthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Status).To(Equal("unhealthy"))
		Expect(body.Components["database"].Message).ToNot(BeEmpty())
	})
})
