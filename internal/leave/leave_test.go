package leave

import (
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

func TestLeave(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Leave Module Suite")
}

var _ = ginkgo.Describe("Status machine", func() {
	ginkgo.Describe("NextStatus", func() {
		ginkgo.It("should advance through the three approval stages in order", func() {
			next, ok := NextStatus(StatusPendingAdmin)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(next).To(gomega.Equal(StatusPendingSubAdmin))

			next, ok = NextStatus(StatusPendingSubAdmin)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(next).To(gomega.Equal(StatusPendingSuperAdmin))

			next, ok = NextStatus(StatusPendingSuperAdmin)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(next).To(gomega.Equal(StatusApproved))
		})

		ginkgo.It("should not advance terminal statuses", func() {
			_, ok := NextStatus(StatusApproved)
			gomega.Expect(ok).To(gomega.BeFalse())

			_, ok = NextStatus(StatusRejected)
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("StageRole", func() {
		ginkgo.It("should map each pending status to exactly one approver role", func() {
			role, ok := StageRole(StatusPendingAdmin)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(role).To(gomega.Equal(userDatamodel.RoleAdmin))

			role, ok = StageRole(StatusPendingSubAdmin)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(role).To(gomega.Equal(userDatamodel.RoleSubAdmin))

			role, ok = StageRole(StatusPendingSuperAdmin)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(role).To(gomega.Equal(userDatamodel.RoleSuperAdmin))
		})

		ginkgo.It("should have no stage role for terminal statuses", func() {
			_, ok := StageRole(StatusApproved)
			gomega.Expect(ok).To(gomega.BeFalse())

			_, ok = StageRole(StatusRejected)
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("IsPending", func() {
		ginkgo.It("should be true for every stage with PENDING in its name", func() {
			gomega.Expect(StatusPendingAdmin.IsPending()).To(gomega.BeTrue())
			gomega.Expect(StatusPendingSubAdmin.IsPending()).To(gomega.BeTrue())
			gomega.Expect(StatusPendingSuperAdmin.IsPending()).To(gomega.BeTrue())
			gomega.Expect(StatusApproved.IsPending()).To(gomega.BeFalse())
			gomega.Expect(StatusRejected.IsPending()).To(gomega.BeFalse())
		})
	})
})

var _ = ginkgo.Describe("Day math", func() {
	parse := func(s string) time.Time {
		t, err := time.Parse("2006-01-02", s)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return t
	}

	ginkgo.Describe("TotalDaysBetween", func() {
		ginkgo.It("should count both endpoints", func() {
			gomega.Expect(TotalDaysBetween(parse("2025-03-10"), parse("2025-03-12"))).To(gomega.Equal(3))
		})

		ginkgo.It("should count a single-day leave as one day", func() {
			gomega.Expect(TotalDaysBetween(parse("2025-03-10"), parse("2025-03-10"))).To(gomega.Equal(1))
		})
	})

	ginkgo.Describe("ExpectedReturn", func() {
		ginkgo.It("should be the day after the leave ends", func() {
			gomega.Expect(ExpectedReturn(parse("2025-03-12"))).To(gomega.Equal("2025-03-13"))
		})

		ginkgo.It("should roll over month boundaries", func() {
			gomega.Expect(ExpectedReturn(parse("2025-03-31"))).To(gomega.Equal("2025-04-01"))
		})
	})
})

var _ = ginkgo.Describe("NewRequest", func() {
	var (
		applicant Actor
		dto       ApplyDTO
		now       time.Time
	)

	ginkgo.BeforeEach(func() {
		applicant = Actor{
			ID:    "student-1",
			Name:  "Riyan",
			Email: "riyan1@gmail.com",
			Role:  userDatamodel.RoleUser,
		}
		dto = ApplyDTO{
			Reason:    "family event",
			StartDate: "2025-03-10",
			EndDate:   "2025-03-12",
		}
		now = time.Date(2025, 3, 8, 9, 30, 0, 0, time.UTC)
	})

	ginkgo.It("should start in PENDING_ADMIN with derived fields filled", func() {
		req := NewRequest(applicant, dto, now)

		gomega.Expect(req.Status).To(gomega.Equal(StatusPendingAdmin))
		gomega.Expect(req.TotalDays).To(gomega.Equal(3))
		gomega.Expect(req.ExpectedReturnDate).To(gomega.Equal("2025-03-13"))
		gomega.Expect(req.AppliedDate).To(gomega.Equal("2025-03-08"))
		gomega.Expect(req.UserID).To(gomega.Equal("student-1"))
		gomega.Expect(req.StudentEmail).To(gomega.Equal("riyan1@gmail.com"))
	})

	ginkgo.It("should seed the history with a single Applied entry", func() {
		req := NewRequest(applicant, dto, now)

		gomega.Expect(req.History).To(gomega.HaveLen(1))
		gomega.Expect(req.History[0].Action).To(gomega.Equal(ActionApplied))
		gomega.Expect(req.History[0].User).To(gomega.Equal("Riyan"))
		gomega.Expect(req.History[0].Role).To(gomega.Equal(userDatamodel.RoleUser))
	})

	ginkgo.It("should generate an LV-prefixed identifier", func() {
		req := NewRequest(applicant, dto, now)

		gomega.Expect(req.ID).To(gomega.HavePrefix("LV-"))
		gomega.Expect(req.ID).To(gomega.HaveLen(9))
	})
})

var _ = ginkgo.Describe("ApplyDTO validation", func() {
	var dto ApplyDTO

	ginkgo.BeforeEach(func() {
		dto = ApplyDTO{
			Reason:    "medical appointment",
			StartDate: "2025-03-10",
			EndDate:   "2025-03-12",
		}
	})

	ginkgo.It("should accept a well-formed application", func() {
		gomega.Expect(dto.Validate()).To(gomega.Succeed())
	})

	ginkgo.It("should reject a blank reason", func() {
		dto.Reason = "   "
		gomega.Expect(dto.Validate()).ToNot(gomega.Succeed())
	})

	ginkgo.It("should reject an end date before the start date", func() {
		dto.EndDate = "2025-03-09"
		gomega.Expect(dto.Validate()).ToNot(gomega.Succeed())
	})

	ginkgo.It("should reject malformed dates", func() {
		dto.StartDate = "10-03-2025"
		gomega.Expect(dto.Validate()).ToNot(gomega.Succeed())
	})
})
