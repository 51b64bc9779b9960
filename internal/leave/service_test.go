package leave

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	leaveDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/leave"
	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
	"github.com/navgurukul/leave-management/internal/core/events"
)

// Mock repository for testing
type mockLeaveRepository struct {
	requests    map[string]*Request
	createError error
	getError    error
	// simulates a concurrent writer winning the conditional update
	loseRace bool
}

func newMockLeaveRepository() *mockLeaveRepository {
	return &mockLeaveRepository{
		requests: make(map[string]*Request),
	}
}

func (m *mockLeaveRepository) Create(req *Request) error {
	if m.createError != nil {
		return m.createError
	}
	clone := *req
	m.requests[req.ID] = &clone
	return nil
}

func (m *mockLeaveRepository) GetByID(id string) (*Request, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	req, exists := m.requests[id]
	if !exists {
		return nil, ErrLeaveNotFound
	}
	clone := *req
	return &clone, nil
}

func (m *mockLeaveRepository) GetByUserID(userID string, limit, offset int) ([]*Request, error) {
	var out []*Request
	for _, req := range m.requests {
		if req.UserID == userID {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockLeaveRepository) GetAll(limit, offset int) ([]*Request, error) {
	var out []*Request
	for _, req := range m.requests {
		clone := *req
		out = append(out, &clone)
	}
	return out, nil
}

func (m *mockLeaveRepository) AdvanceStatus(id string, from, to Status, history leaveDatamodel.HistoryLog) (bool, error) {
	if m.loseRace {
		return false, nil
	}
	req, exists := m.requests[id]
	if !exists || req.Status != from {
		return false, nil
	}
	req.Status = to
	req.History = history
	return true, nil
}

func (m *mockLeaveRepository) MarkRejected(id string, from Status, rejection Rejection, history leaveDatamodel.HistoryLog) (bool, error) {
	if m.loseRace {
		return false, nil
	}
	req, exists := m.requests[id]
	if !exists || req.Status != from {
		return false, nil
	}
	req.Status = StatusRejected
	req.History = history
	req.RejectionReason = rejection.Reason
	req.RejectedByRole = userDatamodel.Role(rejection.ByRole)
	req.RejectedByEmail = rejection.ByEmail
	req.RejectionDateTime = &rejection.At
	return true, nil
}

// Mock publisher recording published events
type mockPublisher struct {
	events []events.Event
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, event events.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

var _ = ginkgo.Describe("LeaveService", func() {
	var (
		service  *Service
		mockRepo *mockLeaveRepository
		mockBus  *mockPublisher

		student    Actor
		admin      Actor
		subAdmin   Actor
		superAdmin Actor
	)

	applyDTO := ApplyDTO{
		Reason:    "family event",
		StartDate: "2025-03-10",
		EndDate:   "2025-03-12",
	}

	ginkgo.BeforeEach(func() {
		mockRepo = newMockLeaveRepository()
		mockBus = &mockPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = NewService(mockRepo, mockBus, logger)

		student = Actor{ID: "u1", Name: "Riyan", Email: "riyan1@gmail.com", Role: userDatamodel.RoleUser}
		admin = Actor{ID: "u2", Name: "Asha", Email: "riyan2@gmail.com", Role: userDatamodel.RoleAdmin}
		subAdmin = Actor{ID: "u3", Name: "Bala", Email: "riyan3@gmail.com", Role: userDatamodel.RoleSubAdmin}
		superAdmin = Actor{ID: "u4", Name: "Charu", Email: "riyan4@gmail.com", Role: userDatamodel.RoleSuperAdmin}
	})

	ginkgo.Describe("Apply", func() {
		ginkgo.It("should persist the request and publish an applied event", func() {
			req, err := service.Apply(student, applyDTO)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(req.Status).To(gomega.Equal(StatusPendingAdmin))
			gomega.Expect(mockRepo.requests).To(gomega.HaveKey(req.ID))
			gomega.Expect(mockBus.events).To(gomega.HaveLen(1))
			gomega.Expect(mockBus.events[0].EventType()).To(gomega.Equal(events.EventTypeLeaveApplied))
		})

		ginkgo.It("should fail validation without touching storage", func() {
			bad := applyDTO
			bad.Reason = ""

			_, err := service.Apply(student, bad)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(mockRepo.requests).To(gomega.BeEmpty())
			gomega.Expect(mockBus.events).To(gomega.BeEmpty())
		})

		ginkgo.It("should surface storage failures without publishing", func() {
			mockRepo.createError = errors.New("permission denied for table leaves")

			_, err := service.Apply(student, applyDTO)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(mockBus.events).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("Approve", func() {
		var reqID string

		ginkgo.BeforeEach(func() {
			req, err := service.Apply(student, applyDTO)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			reqID = req.ID
			mockBus.events = nil
		})

		ginkgo.It("should walk the full chain admin, sub-admin, super-admin to approved", func() {
			req, err := service.Approve(reqID, admin)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(req.Status).To(gomega.Equal(StatusPendingSubAdmin))

			req, err = service.Approve(reqID, subAdmin)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(req.Status).To(gomega.Equal(StatusPendingSuperAdmin))

			req, err = service.Approve(reqID, superAdmin)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(req.Status).To(gomega.Equal(StatusApproved))

			// applied entry plus one per approval
			gomega.Expect(req.History).To(gomega.HaveLen(4))
			gomega.Expect(req.History[3].Action).To(gomega.Equal(ActionApproved))
			gomega.Expect(req.History[3].Role).To(gomega.Equal(userDatamodel.RoleSuperAdmin))

			gomega.Expect(mockBus.events).To(gomega.HaveLen(3))
		})

		ginkgo.It("should refuse an approver acting out of stage order", func() {
			_, err := service.Approve(reqID, subAdmin)

			gomega.Expect(err).To(gomega.Equal(ErrWrongStage))
			gomega.Expect(mockRepo.requests[reqID].Status).To(gomega.Equal(StatusPendingAdmin))
			gomega.Expect(mockBus.events).To(gomega.BeEmpty())
		})

		ginkgo.It("should refuse a student approving anything", func() {
			_, err := service.Approve(reqID, student)

			gomega.Expect(err).To(gomega.Equal(ErrWrongStage))
		})

		ginkgo.It("should return not found for an unknown request", func() {
			_, err := service.Approve("LV-000000", admin)

			gomega.Expect(err).To(gomega.Equal(ErrLeaveNotFound))
		})

		ginkgo.It("should refuse to approve a finalized request", func() {
			_, err := service.Reject(reqID, admin, "incomplete documents")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Approve(reqID, admin)

			gomega.Expect(err).To(gomega.Equal(ErrTerminalStatus))
		})

		ginkgo.It("should report a conflict when a concurrent transition wins", func() {
			mockRepo.loseRace = true

			_, err := service.Approve(reqID, admin)

			gomega.Expect(err).To(gomega.Equal(ErrStatusConflict))
			gomega.Expect(mockBus.events).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("Reject", func() {
		var reqID string

		ginkgo.BeforeEach(func() {
			req, err := service.Apply(student, applyDTO)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			reqID = req.ID
			mockBus.events = nil
		})

		ginkgo.It("should finalize the request with rejection metadata", func() {
			req, err := service.Reject(reqID, admin, "dates clash with exams")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(req.Status).To(gomega.Equal(StatusRejected))
			gomega.Expect(req.RejectionReason).To(gomega.Equal("dates clash with exams"))
			gomega.Expect(req.RejectedByRole).To(gomega.Equal(userDatamodel.RoleAdmin))
			gomega.Expect(req.RejectedByEmail).To(gomega.Equal("riyan2@gmail.com"))
			gomega.Expect(req.RejectionDateTime).ToNot(gomega.BeNil())
			gomega.Expect(mockBus.events).To(gomega.HaveLen(1))
		})

		ginkgo.It("should allow any approver tier to reject a pending request", func() {
			_, err := service.Approve(reqID, admin)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req, err := service.Reject(reqID, superAdmin, "insufficient notice")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(req.Status).To(gomega.Equal(StatusRejected))
		})

		ginkgo.It("should demand a non-blank reason", func() {
			_, err := service.Reject(reqID, admin, "   ")

			gomega.Expect(err).To(gomega.Equal(ErrReasonRequired))
			gomega.Expect(mockRepo.requests[reqID].Status).To(gomega.Equal(StatusPendingAdmin))
		})

		ginkgo.It("should refuse a student rejecting", func() {
			_, err := service.Reject(reqID, student, "nope")

			gomega.Expect(err).To(gomega.Equal(ErrUnauthorizedAccess))
		})

		ginkgo.It("should refuse to reject a finalized request", func() {
			_, err := service.Reject(reqID, admin, "first rejection")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Reject(reqID, admin, "second rejection")

			gomega.Expect(err).To(gomega.Equal(ErrTerminalStatus))
		})

		ginkgo.It("should report a conflict when a concurrent transition wins", func() {
			mockRepo.loseRace = true

			_, err := service.Reject(reqID, admin, "conflict race")

			gomega.Expect(err).To(gomega.Equal(ErrStatusConflict))
		})
	})

	ginkgo.Describe("GetByID", func() {
		var reqID string

		ginkgo.BeforeEach(func() {
			req, err := service.Apply(student, applyDTO)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			reqID = req.ID
		})

		ginkgo.It("should let the owner read their own request", func() {
			req, err := service.GetByID(reqID, student)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(req.UserID).To(gomega.Equal(student.ID))
		})

		ginkgo.It("should let any approver read any request", func() {
			_, err := service.GetByID(reqID, superAdmin)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should hide other students' requests", func() {
			other := Actor{ID: "u9", Name: "Dev", Role: userDatamodel.RoleUser}

			_, err := service.GetByID(reqID, other)

			gomega.Expect(err).To(gomega.Equal(ErrUnauthorizedAccess))
		})
	})

	ginkgo.Describe("ListAll", func() {
		ginkgo.It("should refuse non-approvers", func() {
			_, err := service.ListAll(student, 20, 0)

			gomega.Expect(err).To(gomega.Equal(ErrUnauthorizedAccess))
		})
	})
})
