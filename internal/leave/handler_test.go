package leave_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/navgurukul/leave-management/internal/auth"
	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
	leavepkg "github.com/navgurukul/leave-management/internal/leave"
)

type mockLeaveService struct {
	applyError   error
	getError     error
	listError    error
	approveError error
	rejectError  error
	request      *leavepkg.Request
	requests     []*leavepkg.Request

	listedAll     bool
	listedForUser string
}

func (m *mockLeaveService) Apply(applicant leavepkg.Actor, dto leavepkg.ApplyDTO) (*leavepkg.Request, error) {
	if m.applyError != nil {
		return nil, m.applyError
	}
	return m.request, nil
}

func (m *mockLeaveService) GetByID(id string, actor leavepkg.Actor) (*leavepkg.Request, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	return m.request, nil
}

func (m *mockLeaveService) ListForUser(userID string, limit, offset int) ([]*leavepkg.Request, error) {
	m.listedForUser = userID
	if m.listError != nil {
		return nil, m.listError
	}
	return m.requests, nil
}

func (m *mockLeaveService) ListAll(actor leavepkg.Actor, limit, offset int) ([]*leavepkg.Request, error) {
	m.listedAll = true
	if m.listError != nil {
		return nil, m.listError
	}
	return m.requests, nil
}

func (m *mockLeaveService) Approve(id string, actor leavepkg.Actor) (*leavepkg.Request, error) {
	if m.approveError != nil {
		return nil, m.approveError
	}
	return m.request, nil
}

func (m *mockLeaveService) Reject(id string, actor leavepkg.Actor, reason string) (*leavepkg.Request, error) {
	if m.rejectError != nil {
		return nil, m.rejectError
	}
	return m.request, nil
}

func identityFor(role userDatamodel.Role) *auth.Identity {
	return &auth.Identity{
		ID:    "u1",
		Name:  "Riyan",
		Email: "riyan1@gmail.com",
		Role:  role,
	}
}

func requestWithIdentity(method, target string, body []byte, identity *auth.Identity, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	ctx := auth.ContextWithIdentity(req.Context(), identity)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

var _ = ginkgo.Describe("LeaveHandler", func() {
	var (
		handler  *leavepkg.Handler
		service  *mockLeaveService
		recorder *httptest.ResponseRecorder
	)

	ginkgo.BeforeEach(func() {
		service = &mockLeaveService{
			request: &leavepkg.Request{
				ID:     "LV-000001",
				UserID: "u1",
				Status: leavepkg.StatusPendingAdmin,
			},
		}
		handler = leavepkg.NewHandler(service)
		recorder = httptest.NewRecorder()
	})

	ginkgo.Context("Apply", func() {
		ginkgo.It("should create a leave request for an authenticated student", func() {
			body, _ := json.Marshal(map[string]string{
				"reason":     "family event",
				"start_date": "2025-03-10",
				"end_date":   "2025-03-12",
			})
			req := requestWithIdentity("POST", "/api/v1/leaves", body, identityFor(userDatamodel.RoleUser), nil)

			handler.Apply(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusCreated))
			var response leavepkg.Request
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(gomega.Succeed())
			gomega.Expect(response.ID).To(gomega.Equal("LV-000001"))
		})

		ginkgo.It("should return unauthorized without an identity", func() {
			req := httptest.NewRequest("POST", "/api/v1/leaves", bytes.NewBufferString("{}"))

			handler.Apply(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should return bad request for invalid JSON", func() {
			req := requestWithIdentity("POST", "/api/v1/leaves", []byte("not json"), identityFor(userDatamodel.RoleUser), nil)

			handler.Apply(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should map storage permission failures to forbidden", func() {
			service.applyError = errors.New("permission denied for table leaves")
			req := requestWithIdentity("POST", "/api/v1/leaves", []byte("{}"), identityFor(userDatamodel.RoleUser), nil)

			handler.Apply(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusForbidden))
		})
	})

	ginkgo.Context("List", func() {
		ginkgo.It("should give approvers the full list", func() {
			req := requestWithIdentity("GET", "/api/v1/leaves", nil, identityFor(userDatamodel.RoleAdmin), nil)

			handler.List(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(service.listedAll).To(gomega.BeTrue())
		})

		ginkgo.It("should give students only their own requests", func() {
			req := requestWithIdentity("GET", "/api/v1/leaves", nil, identityFor(userDatamodel.RoleUser), nil)

			handler.List(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(service.listedAll).To(gomega.BeFalse())
			gomega.Expect(service.listedForUser).To(gomega.Equal("u1"))
		})
	})

	ginkgo.Context("Approve", func() {
		approveReq := func(role userDatamodel.Role) *http.Request {
			return requestWithIdentity("PATCH", "/api/v1/leaves/LV-000001/approve", nil,
				identityFor(role), map[string]string{"id": "LV-000001"})
		}

		ginkgo.It("should approve at the matching stage", func() {
			service.request.Status = leavepkg.StatusPendingSubAdmin

			handler.Approve(recorder, approveReq(userDatamodel.RoleAdmin))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("should return not found for an unknown request", func() {
			service.approveError = leavepkg.ErrLeaveNotFound

			handler.Approve(recorder, approveReq(userDatamodel.RoleAdmin))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusNotFound))
		})

		ginkgo.It("should return forbidden for a wrong-stage approver", func() {
			service.approveError = leavepkg.ErrWrongStage

			handler.Approve(recorder, approveReq(userDatamodel.RoleSubAdmin))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("should return conflict when a concurrent transition won", func() {
			service.approveError = leavepkg.ErrStatusConflict

			handler.Approve(recorder, approveReq(userDatamodel.RoleAdmin))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusConflict))
		})

		ginkgo.It("should return bad request for a finalized request", func() {
			service.approveError = leavepkg.ErrTerminalStatus

			handler.Approve(recorder, approveReq(userDatamodel.RoleAdmin))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Context("Reject", func() {
		rejectReq := func(body []byte) *http.Request {
			return requestWithIdentity("PATCH", "/api/v1/leaves/LV-000001/reject", body,
				identityFor(userDatamodel.RoleAdmin), map[string]string{"id": "LV-000001"})
		}

		ginkgo.It("should reject with a reason", func() {
			body, _ := json.Marshal(map[string]string{"reason": "dates clash with exams"})

			handler.Reject(recorder, rejectReq(body))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("should return bad request without a reason", func() {
			body, _ := json.Marshal(map[string]string{"reason": "  "})

			handler.Reject(recorder, rejectReq(body))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})
})
